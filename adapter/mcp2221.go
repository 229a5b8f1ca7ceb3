// Package adapter implements thermo transports over USB bridges.
package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/thermo"
	"github.com/mklimuk/thermo/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

const reportSize = 64

// MCP2221 HID commands
const (
	cmdStatus          byte = 0x10
	cmdGetData         byte = 0x40
	cmdGetGPIO         byte = 0x51
	cmdWriteData       byte = 0x90
	cmdReadData        byte = 0x91
	cmdReadRepeated    byte = 0x93
	cmdWriteDataNoStop byte = 0x94
	cmdReadFlash       byte = 0xB0
	cmdWriteFlash      byte = 0xB1
)

const (
	statusBusy       byte = 0x01
	statusReadFailed byte = 0x41
	statusCancel     byte = 0x10
)

var ErrCommandUnsupported = errors.New("unsupported command")
var ErrCommandFailed = errors.New("command failed")
var ErrDeviceNotFound = errors.New("MCP2221 device not found")

var _ thermo.I2CBus = &MCP2221{}
var _ thermo.RegisterBus = &MCP2221{}

type hidDevice interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

type Options struct {
	// Index selects the bridge when more than one is plugged in.
	Index        int
	ResponseWait time.Duration
}

type Option func(*Options)

func WithIndex(index int) Option {
	return func(o *Options) {
		o.Index = index
	}
}

func WithResponseWait(wait time.Duration) Option {
	return func(o *Options) {
		o.ResponseWait = wait
	}
}

// MCP2221 talks to the bridge one 64 byte report at a time. The device is opened
// for every command, so several processes may share the bridge between commands.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	open         func() (hidDevice, error)
}

func NewMCP2221(opts ...Option) *MCP2221 {
	options := Options{Index: -1, ResponseWait: 50 * time.Millisecond}
	for _, opt := range opts {
		opt(&options)
	}
	return &MCP2221{
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: options.ResponseWait,
		open: func() (hidDevice, error) {
			return openHID(options.Index)
		},
	}
}

func openHID(index int) (hidDevice, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return nil, ErrDeviceNotFound
	}
	if index < 0 {
		if len(devs) > 1 {
			return nil, fmt.Errorf("ambiguous device identification: %d bridges found", len(devs))
		}
		index = 0
	}
	if index >= len(devs) {
		return nil, fmt.Errorf("no device with index %d", index)
	}
	dev, err := devs[index].Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.write(ctx, cmdWriteData, address, buffer)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.read(ctx, cmdReadData, address, buffer)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	return nil
}

// ReadRegister writes the register pointer without a stop condition and reads
// the content after a repeated start.
func (d *MCP2221) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.write(ctx, cmdWriteDataNoStop, address, []byte{register})
	if err != nil {
		return fmt.Errorf("could not select register %#02x of %x: %w", register, address, err)
	}
	err = d.read(ctx, cmdReadRepeated, address, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#02x of %x: %w", register, address, err)
	}
	return nil
}

func (d *MCP2221) WriteRegister(ctx context.Context, address, register byte, data []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.write(ctx, cmdWriteData, address, append([]byte{register}, data...))
	if err != nil {
		return fmt.Errorf("could not write register %#02x of %x: %w", register, address, err)
	}
	return nil
}

func (d *MCP2221) write(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > reportSize-4 {
		return fmt.Errorf("transfer of %d bytes does not fit a single report", len(buffer))
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.send(ctx)
	if err != nil {
		return err
	}
	// the engine did not accept the command
	if d.response[1] == statusBusy {
		slog.Debug("adapter busy", "cmd", fmt.Sprintf("%#02x", cmd))
		return thermo.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) read(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > reportSize-4 {
		return fmt.Errorf("transfer of %d bytes does not fit a single report", len(buffer))
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx)
	if err != nil {
		return err
	}
	if d.response[1] == statusBusy {
		return thermo.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdGetData
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == statusReadFailed {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

func (d *MCP2221) send(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dev, err := d.open()
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Warn("could not close adapter", "error", err)
		}
	}()
	verbose := snsctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("sending message to adapter", "report", "\n"+hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	if d.responseWait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.responseWait):
		}
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if d.response[0] != d.request[0] {
		return fmt.Errorf("%w: response to %#02x echoes %#02x", ErrCommandFailed, d.request[0], d.response[0])
	}
	if verbose {
		slog.Debug("read message from adapter", "report", "\n"+hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
