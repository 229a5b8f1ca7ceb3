package mcp9808

import (
	"context"
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/thermo"
)

// Device is a handle to one MCP9808 on a register bus.
//
// Usage: instantiate with New, then call ReadTemperature(ctx) or ReadTemperatureFixed(ctx).
// Every write is a read-modify-write of the whole register, so bits the call does not own
// are written back as they were read.
type Device struct {
	bus     thermo.RegisterBus
	address byte
}

type Options struct {
	Address byte
}

type Option func(*Options)

func WithAddress(address byte) Option {
	return func(o *Options) {
		o.Address = address
	}
}

// New creates a handle for the sensor on bus. It performs no I/O; use Identify to check
// the device is present.
func New(bus thermo.RegisterBus, opts ...Option) *Device {
	options := Options{
		Address: DefaultAddress,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Device{bus: bus, address: options.Address}
}

func (d *Device) Address() byte { return d.address }

func (d *Device) String() string { return fmt.Sprintf("mcp9808@%#02x", d.address) }

// ReadTemperature reads the ambient temperature in degrees Celsius.
func (d *Device) ReadTemperature(ctx context.Context) (float64, error) {
	raw, err := d.readWord(ctx, "read temperature", RegAmbient)
	if err != nil {
		return 0, err
	}
	return DecodeTemperature(raw), nil
}

// ReadTemperatureFixed reads the ambient temperature without any floating point operation.
func (d *Device) ReadTemperatureFixed(ctx context.Context) (Fixed, error) {
	raw, err := d.readWord(ctx, "read temperature", RegAmbient)
	if err != nil {
		return Fixed{}, err
	}
	return DecodeTemperatureFixed(raw), nil
}

// Sense reads the ambient temperature as a periph physic value.
func (d *Device) Sense(ctx context.Context) (physic.Temperature, error) {
	f, err := d.ReadTemperatureFixed(ctx)
	if err != nil {
		return 0, err
	}
	return f.Temperature(), nil
}

// Sample is one read of the T_A register.
type Sample struct {
	Raw   uint16
	Value Fixed
	Flags Flags
}

// ReadSample reads the ambient temperature together with the boundary comparator flags.
func (d *Device) ReadSample(ctx context.Context) (Sample, error) {
	raw, err := d.readWord(ctx, "read sample", RegAmbient)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Raw: raw, Value: DecodeTemperatureFixed(raw), Flags: DecodeFlags(raw)}, nil
}

// ReadConfig reads the CONFIG register.
func (d *Device) ReadConfig(ctx context.Context) (Config, error) {
	raw, err := d.readWord(ctx, "read config", RegConfig)
	return Config(raw), err
}

// EnterShutdown stops continuous conversion. The register interface stays available.
func (d *Device) EnterShutdown(ctx context.Context) error {
	return d.updateConfig(ctx, "enter shutdown", func(c Config) (Config, error) {
		return c.WithShutdown(true), nil
	})
}

// ExitShutdown resumes continuous conversion.
func (d *Device) ExitShutdown(ctx context.Context) error {
	return d.updateConfig(ctx, "exit shutdown", func(c Config) (Config, error) {
		return c.WithShutdown(false), nil
	})
}

// SetAlertMode sets the four alert control bits. When either lock bit is set the device
// ignores such writes, so ErrLocked is returned and nothing is written.
func (d *Device) SetAlertMode(ctx context.Context, alert AlertSettings) error {
	return d.updateConfig(ctx, "set alert mode", func(c Config) (Config, error) {
		if c.Locked() {
			return c, ErrLocked
		}
		return c.WithAlert(alert), nil
	})
}

// AcknowledgeAlert clears a latched interrupt output. Needed in interrupt output mode only.
func (d *Device) AcknowledgeAlert(ctx context.Context) error {
	return d.updateConfig(ctx, "acknowledge alert", func(c Config) (Config, error) {
		return c.WithInterruptClear(true), nil
	})
}

// SetHysteresis sets the T_HYST field. Either lock bit freezes it, see SetAlertMode.
func (d *Device) SetHysteresis(ctx context.Context, h Hysteresis) error {
	return d.updateConfig(ctx, "set hysteresis", func(c Config) (Config, error) {
		if c.Locked() {
			return c, ErrLocked
		}
		return c.WithHysteresis(h), nil
	})
}

// ReadResolution reads the RESOLUTION register.
func (d *Device) ReadResolution(ctx context.Context) (Resolution, error) {
	reg, err := d.readResolution(ctx, "read resolution")
	if err != nil {
		return Resolution{}, err
	}
	return reg.Resolution(), nil
}

// SetResolution sets the conversion resolution, leaving bits 7..2 of the register as read.
func (d *Device) SetResolution(ctx context.Context, res Resolution) error {
	const op = "set resolution"
	reg, err := d.readResolution(ctx, op)
	if err != nil {
		return err
	}
	next := reg.WithResolution(res)
	err = d.bus.WriteRegister(ctx, d.address, RegResolution, []byte{byte(next)})
	if err != nil {
		return &BusError{Op: op, Register: RegResolution, Err: err}
	}
	return nil
}

// Boundary selects one of the alert boundary registers.
type Boundary struct {
	register byte
}

var (
	BoundaryUpper    = Boundary{register: RegUpper}
	BoundaryLower    = Boundary{register: RegLower}
	BoundaryCritical = Boundary{register: RegCritical}
)

// Register returns the register pointer; the zero Boundary maps to T_UPPER.
func (b Boundary) Register() byte {
	if b.register == 0 {
		return RegUpper
	}
	return b.register
}

func (b Boundary) String() string {
	switch b.Register() {
	case RegLower:
		return "lower"
	case RegCritical:
		return "critical"
	default:
		return "upper"
	}
}

// SetAlertBoundary writes a boundary temperature. The value is rounded to 0.25 °C.
// A value outside the operating range fails with ErrOutOfRange before any bus transaction.
// The configuration register is read first: the window lock freezes T_UPPER and T_LOWER,
// the critical lock freezes T_CRIT, and a frozen boundary yields ErrLocked without a write.
func (d *Device) SetAlertBoundary(ctx context.Context, b Boundary, celsius float64) error {
	const op = "set alert boundary"
	raw, err := EncodeBoundary(celsius)
	if err != nil {
		return fmt.Errorf("set %s boundary: %w", b, err)
	}
	cfg, err := d.readWord(ctx, op, RegConfig)
	if err != nil {
		return err
	}
	if Config(cfg).BoundaryLocked(b) {
		return fmt.Errorf("set %s boundary: %w", b, ErrLocked)
	}
	return d.writeWord(ctx, op, b.Register(), raw)
}

// ReadAlertBoundary reads a boundary temperature in degrees Celsius.
func (d *Device) ReadAlertBoundary(ctx context.Context, b Boundary) (float64, error) {
	raw, err := d.readWord(ctx, "read alert boundary", b.Register())
	if err != nil {
		return 0, err
	}
	return DecodeTemperature(raw), nil
}

// Identity is the content of the identification registers.
type Identity struct {
	ManufacturerID uint16
	DeviceID       uint8
	Revision       uint8
}

// Identify reads the manufacturer and device ID registers and checks they belong to an MCP9808.
// The identity read is returned even when the check fails.
func (d *Device) Identify(ctx context.Context) (Identity, error) {
	var id Identity
	manufacturer, err := d.readWord(ctx, "identify", RegManufacturerID)
	if err != nil {
		return id, err
	}
	device, err := d.readWord(ctx, "identify", RegDeviceID)
	if err != nil {
		return id, err
	}
	id = Identity{ManufacturerID: manufacturer, DeviceID: uint8(device >> 8), Revision: uint8(device)}
	if id.ManufacturerID != ManufacturerID || id.DeviceID != DeviceID {
		return id, fmt.Errorf("%w: manufacturer %#04x, device %#02x", ErrUnknownDevice, id.ManufacturerID, id.DeviceID)
	}
	return id, nil
}

func (d *Device) updateConfig(ctx context.Context, op string, update func(Config) (Config, error)) error {
	raw, err := d.readWord(ctx, op, RegConfig)
	if err != nil {
		return err
	}
	next, err := update(Config(raw))
	if err != nil {
		return fmt.Errorf("mcp9808: %s: %w", op, err)
	}
	return d.writeWord(ctx, op, RegConfig, uint16(next))
}

func (d *Device) readResolution(ctx context.Context, op string) (ResolutionRegister, error) {
	var buf [1]byte
	err := d.bus.ReadRegister(ctx, d.address, RegResolution, buf[:])
	if err != nil {
		return 0, &BusError{Op: op, Register: RegResolution, Err: err}
	}
	return ResolutionRegister(buf[0]), nil
}

func (d *Device) readWord(ctx context.Context, op string, reg byte) (uint16, error) {
	var buf [2]byte
	err := d.bus.ReadRegister(ctx, d.address, reg, buf[:])
	if err != nil {
		return 0, &BusError{Op: op, Register: reg, Err: err}
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func (d *Device) writeWord(ctx context.Context, op string, reg byte, value uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], value)
	err := d.bus.WriteRegister(ctx, d.address, reg, buf[:])
	if err != nil {
		return &BusError{Op: op, Register: reg, Err: err}
	}
	return nil
}
