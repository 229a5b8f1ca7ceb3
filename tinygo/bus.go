// Package tinygo adapts a tinygo drivers.I2C, such as machine.I2C0 on a microcontroller,
// to the thermo bus contracts.
package tinygo

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/thermo"
	"tinygo.org/x/drivers"
)

var _ thermo.RegisterBus = &Bus{}
var _ thermo.I2CBus = &Bus{}

// Bus reuses a small scratch buffer for register writes so that the usual
// one and two byte writes do not allocate.
type Bus struct {
	mx  sync.Mutex
	i2c drivers.I2C
	w   [3]byte
}

func New(i2c drivers.I2C) *Bus {
	return &Bus{i2c: i2c}
}

func (b *Bus) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	b.w[0] = register
	if err := b.i2c.Tx(uint16(address), b.w[:1], buffer); err != nil {
		return fmt.Errorf("could not read register %#02x of %x: %w", register, address, err)
	}
	return nil
}

func (b *Bus) WriteRegister(ctx context.Context, address, register byte, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	var frame []byte
	if len(data) < len(b.w) {
		b.w[0] = register
		n := copy(b.w[1:], data)
		frame = b.w[:n+1]
	} else {
		frame = append([]byte{register}, data...)
	}
	if err := b.i2c.Tx(uint16(address), frame, nil); err != nil {
		return fmt.Errorf("could not write register %#02x of %x: %w", register, address, err)
	}
	return nil
}

func (b *Bus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	if err := b.i2c.Tx(uint16(address), nil, buffer); err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *Bus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	if err := b.i2c.Tx(uint16(address), buffer, nil); err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *Bus) Release(ctx context.Context) error {
	return nil
}
