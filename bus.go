package thermo

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a raw addressed bus: a write followed by a read, each a separate transaction.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// RegisterReader fills buffer with the content of register on the device at address.
type RegisterReader interface {
	ReadRegister(ctx context.Context, address, register byte, buffer []byte) error
}

// RegisterWriter writes data to register on the device at address.
// A write either succeeds as a whole or fails; partial register writes are not reported as success.
type RegisterWriter interface {
	WriteRegister(ctx context.Context, address, register byte, data []byte) error
}

// RegisterBus is the transaction contract register-level drivers consume.
type RegisterBus interface {
	RegisterReader
	RegisterWriter
}

var _ RegisterBus = &registerBus{}

type registerBus struct {
	bus I2CBus
}

// NewRegisterBus turns a raw I2CBus into a RegisterBus by sending the register pointer
// before every read and prefixing it to every write.
func NewRegisterBus(bus I2CBus) RegisterBus {
	return &registerBus{bus: bus}
}

func (r *registerBus) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	err := r.bus.WriteToAddr(ctx, address, []byte{register})
	if err != nil {
		return fmt.Errorf("could not select register %#02x: %w", register, err)
	}
	err = r.bus.ReadFromAddr(ctx, address, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#02x: %w", register, err)
	}
	return nil
}

func (r *registerBus) WriteRegister(ctx context.Context, address, register byte, data []byte) error {
	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, register)
	frame = append(frame, data...)
	err := r.bus.WriteToAddr(ctx, address, frame)
	if err != nil {
		return fmt.Errorf("could not write register %#02x: %w", register, err)
	}
	return nil
}
