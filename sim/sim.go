// Package sim emulates the register file of an MCP9808 behind a thermo.RegisterBus,
// so drivers and tools can run without hardware.
//
// The emulation covers what the register interface exposes: power-on values, read-only
// identification and ambient registers, the 0.25 °C granularity of boundary registers,
// the read-only alert status bit, the self-clearing interrupt clear bit, sticky lock bits
// freezing the alert and hysteresis bits and the boundaries they guard, and the comparator
// flags in bits 15..13 of T_A.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/mklimuk/thermo"
)

const (
	regConfig       byte = 0x01
	regUpper        byte = 0x02
	regLower        byte = 0x03
	regCritical     byte = 0x04
	regAmbient      byte = 0x05
	regManufacturer byte = 0x06
	regDevice       byte = 0x07
	regResolution   byte = 0x08
)

const (
	cfgAlertBits      uint16 = 0x000F
	cfgAlertStatus    uint16 = 1 << 4
	cfgInterruptClear uint16 = 1 << 5
	cfgWindowLock     uint16 = 1 << 6
	cfgCriticalLock   uint16 = 1 << 7
	cfgLockBits       uint16 = cfgWindowLock | cfgCriticalLock
	cfgHysteresisBits uint16 = 0x0600
	boundaryMask      uint16 = 0x1FFC
	fieldMask         uint16 = 0x1FFF
)

var (
	ErrNoDevice        = errors.New("sim: no device at address")
	ErrUnknownRegister = errors.New("sim: unknown register")
	ErrReadOnly        = errors.New("sim: register is read-only")
	ErrLength          = errors.New("sim: transfer length does not match register width")
)

var _ thermo.RegisterBus = &Device{}

// Op is one recorded register transaction.
type Op struct {
	Write    bool
	Register byte
	Data     []byte
}

// Device is an in-memory MCP9808. It is safe for concurrent use.
type Device struct {
	mx      sync.Mutex
	address byte
	regs    map[byte]uint16
	ops     []Op
	faults  map[byte]error
}

type Options struct {
	Address byte
	Ambient float64
}

type Option func(*Options)

func WithAddress(address byte) Option {
	return func(o *Options) {
		o.Address = address
	}
}

// WithAmbient sets the initial ambient temperature in degrees Celsius.
func WithAmbient(celsius float64) Option {
	return func(o *Options) {
		o.Ambient = celsius
	}
}

// New creates a device in its power-on state: alerts disabled, boundaries at 0 °C,
// maximum resolution, manufacturer 0x0054, device 0x04 revision 0x00.
func New(opts ...Option) *Device {
	options := Options{Address: 0x18, Ambient: 25}
	for _, opt := range opts {
		opt(&options)
	}
	d := &Device{
		address: options.Address,
		regs: map[byte]uint16{
			regConfig:       0x0000,
			regUpper:        0x0000,
			regLower:        0x0000,
			regCritical:     0x0000,
			regManufacturer: 0x0054,
			regDevice:       0x0400,
			regResolution:   0x0003,
		},
		faults: map[byte]error{},
	}
	d.setAmbient(toCounts(options.Ambient))
	return d
}

func width(reg byte) int {
	if reg == regResolution {
		return 1
	}
	return 2
}

func (d *Device) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.check(address, register, len(buffer)); err != nil {
		return err
	}
	value := d.regs[register]
	if register == regResolution {
		buffer[0] = byte(value)
	} else {
		buffer[0] = byte(value >> 8)
		buffer[1] = byte(value)
	}
	d.ops = append(d.ops, Op{Register: register, Data: append([]byte(nil), buffer...)})
	return nil
}

func (d *Device) WriteRegister(ctx context.Context, address, register byte, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.check(address, register, len(data)); err != nil {
		return err
	}
	var value uint16
	if register == regResolution {
		value = uint16(data[0])
	} else {
		value = uint16(data[0])<<8 | uint16(data[1])
	}
	switch register {
	case regAmbient, regManufacturer, regDevice:
		return fmt.Errorf("%w: %#02x", ErrReadOnly, register)
	case regUpper, regLower, regCritical:
		// the chip acknowledges writes to a locked boundary and drops them
		if d.regs[regConfig]&boundaryLock(register) == 0 {
			d.regs[register] = value & boundaryMask
			d.compare()
		}
	case regConfig:
		d.writeConfig(value)
	case regResolution:
		d.regs[register] = value
	}
	d.ops = append(d.ops, Op{Write: true, Register: register, Data: append([]byte(nil), data...)})
	return nil
}

func (d *Device) check(address, register byte, n int) error {
	if address != d.address {
		return fmt.Errorf("%w %#02x", ErrNoDevice, address)
	}
	if err, ok := d.faults[register]; ok {
		delete(d.faults, register)
		return err
	}
	if _, ok := d.regs[register]; !ok {
		return fmt.Errorf("%w: %#02x", ErrUnknownRegister, register)
	}
	if n != width(register) {
		return fmt.Errorf("%w: register %#02x, %d bytes", ErrLength, register, n)
	}
	return nil
}

func (d *Device) writeConfig(value uint16) {
	current := d.regs[regConfig]
	next := value &^ (cfgAlertStatus | cfgInterruptClear)
	// lock bits can only be set, and once set they freeze the alert control and hysteresis bits
	next |= current & cfgLockBits
	if current&cfgLockBits != 0 {
		frozen := cfgAlertBits | cfgHysteresisBits
		next = next&^frozen | current&frozen
	}
	next |= current & cfgAlertStatus
	d.regs[regConfig] = next
	if value&cfgInterruptClear != 0 {
		d.regs[regConfig] &^= cfgAlertStatus
		return
	}
	d.compare()
}

func boundaryLock(register byte) uint16 {
	if register == regCritical {
		return cfgCriticalLock
	}
	return cfgWindowLock
}

// SetAmbient sets the ambient temperature in degrees Celsius, rounded to 1/16 °C.
func (d *Device) SetAmbient(celsius float64) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.setAmbient(toCounts(celsius))
}

// SetAmbientRaw sets the 13-bit temperature field of T_A directly; bits 15..13 are recomputed.
func (d *Device) SetAmbientRaw(raw uint16) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.setAmbient(fromField(raw & fieldMask))
}

func (d *Device) setAmbient(counts int32) {
	d.regs[regAmbient] = toField(counts)
	d.compare()
}

// compare recomputes the T_A flags and, when alerts are enabled, the alert status bit.
func (d *Device) compare() {
	ambient := fromField(d.regs[regAmbient] & fieldMask)
	flags := d.regs[regAmbient] & fieldMask
	critical := ambient >= fromField(d.regs[regCritical])
	upper := ambient > fromField(d.regs[regUpper])
	lower := ambient < fromField(d.regs[regLower])
	if critical {
		flags |= 1 << 15
	}
	if upper {
		flags |= 1 << 14
	}
	if lower {
		flags |= 1 << 13
	}
	d.regs[regAmbient] = flags

	config := d.regs[regConfig]
	if config&(1<<3) == 0 {
		d.regs[regConfig] = config &^ cfgAlertStatus
		return
	}
	assert := critical
	if config&(1<<2) == 0 {
		assert = assert || upper || lower
	}
	if assert {
		d.regs[regConfig] = config | cfgAlertStatus
	} else if config&(1<<0) == 0 {
		// comparator output follows the temperature, interrupt output stays latched
		d.regs[regConfig] = config &^ cfgAlertStatus
	}
}

// Register returns the current content of a register.
func (d *Device) Register(reg byte) uint16 {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.regs[reg]
}

// SetRegister overwrites a register bypassing every hardware rule.
func (d *Device) SetRegister(reg byte, value uint16) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.regs[reg] = value
}

// FailNext makes the next transaction addressed to reg fail with err.
func (d *Device) FailNext(reg byte, err error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.faults[reg] = err
}

// Ops returns the recorded successful transactions.
func (d *Device) Ops() []Op {
	d.mx.Lock()
	defer d.mx.Unlock()
	return append([]Op(nil), d.ops...)
}

// Writes returns how many successful writes were recorded.
func (d *Device) Writes() int {
	d.mx.Lock()
	defer d.mx.Unlock()
	n := 0
	for _, op := range d.ops {
		if op.Write {
			n++
		}
	}
	return n
}

// Reset clears the transaction log.
func (d *Device) Reset() {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.ops = nil
}

func toCounts(celsius float64) int32 {
	counts := int32(math.Round(celsius * 16))
	if counts > 4095 {
		counts = 4095
	}
	if counts < -4096 {
		counts = -4096
	}
	return counts
}

func toField(counts int32) uint16 {
	if counts < 0 {
		counts += 0x2000
	}
	return uint16(counts) & fieldMask
}

func fromField(field uint16) int32 {
	field &= fieldMask
	if field&0x1000 != 0 {
		return int32(field) - 0x2000
	}
	return int32(field)
}
