// Package i2c exposes a periph.io host I2C bus, such as /dev/i2c-1 on a Linux board,
// as both a raw thermo.I2CBus and a thermo.RegisterBus.
package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/thermo"
	"github.com/mklimuk/thermo/snsctx"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var _ thermo.I2CBus = &GenericBus{}
var _ thermo.RegisterBus = &GenericBus{}

type GenericBus struct {
	bus i2c.BusCloser
}

// Open initializes the periph host drivers and opens the named bus.
// An empty name opens the first bus found.
func Open(name string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %q: %w", name, err)
	}
	slog.Debug("i2c bus opened", "bus", bus.String())
	return NewGenericBus(bus), nil
}

// NewGenericBus wraps an already opened bus.
func NewGenericBus(bus i2c.BusCloser) *GenericBus {
	return &GenericBus{bus: bus}
}

// SetSpeed changes the bus clock, e.g. 400*physic.KiloHertz for fast mode.
func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	err := b.bus.SetSpeed(f)
	if err != nil {
		return fmt.Errorf("could not set bus speed to %s: %w", f, err)
	}
	return nil
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.tx(ctx, address, nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.tx(ctx, address, buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// ReadRegister sends the register pointer and reads the content in a single
// transaction joined by a repeated start.
func (b *GenericBus) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	err := b.tx(ctx, address, []byte{register}, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#02x of %x: %w", register, address, err)
	}
	return nil
}

func (b *GenericBus) WriteRegister(ctx context.Context, address, register byte, data []byte) error {
	frame := append([]byte{register}, data...)
	err := b.tx(ctx, address, frame, nil)
	if err != nil {
		return fmt.Errorf("could not write register %#02x of %x: %w", register, address, err)
	}
	return nil
}

func (b *GenericBus) tx(ctx context.Context, address byte, w, r []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.bus.Tx(uint16(address), w, r)
	if snsctx.IsVerbose(ctx) {
		slog.Debug("i2c tx", "addr", fmt.Sprintf("%#02x", address), "w", snsctx.Hex(w), "r", snsctx.Hex(r), "err", err)
	}
	return err
}

// Release is a no-op, the host bus has no engine to reset.
func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
