// Package gobot drives thermo register transactions through a gobot I2C connector,
// which lets the sensor share a board adaptor, like the NanoPi NEO one, with other gobot drivers.
package gobot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/thermo"
	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
)

var _ thermo.RegisterBus = &Bus{}
var _ thermo.I2CBus = &Bus{}

const driverName = "mcp9808"

type Options struct {
	// Bus selects the bus number; a negative value uses the connector default.
	Bus int
}

type Option func(*Options)

func WithBus(bus int) Option {
	return func(o *Options) {
		o.Bus = bus
	}
}

// Bus starts a short-lived generic driver for every transaction. The register pointer
// is written first and the content read in a separate transfer, the sensor keeps the
// pointer between transfers.
type Bus struct {
	mx        sync.Mutex
	connector i2c.Connector
	bus       int
}

func New(connector i2c.Connector, opts ...Option) *Bus {
	options := Options{Bus: -1}
	for _, opt := range opts {
		opt(&options)
	}
	return &Bus{connector: connector, bus: options.Bus}
}

// OpenNanoPi connects the I2C adaptor of a NanoPi NEO board. The returned function
// finalizes the adaptor.
func OpenNanoPi(opts ...Option) (*Bus, func() error, error) {
	npi := nanopi.NewNeoAdaptor()
	err := npi.I2cBusAdaptor.Connect()
	if err != nil {
		return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	return New(npi, opts...), npi.I2cBusAdaptor.Finalize, nil
}

func (b *Bus) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	return b.with(ctx, address, func(board *i2c.GenericDriver) error {
		err := board.Write([]byte{register})
		if err != nil {
			return fmt.Errorf("could not select register %#02x: %w", register, err)
		}
		err = board.Read(buffer)
		if err != nil {
			return fmt.Errorf("could not read register %#02x: %w", register, err)
		}
		return nil
	})
}

func (b *Bus) WriteRegister(ctx context.Context, address, register byte, data []byte) error {
	return b.with(ctx, address, func(board *i2c.GenericDriver) error {
		err := board.Write(append([]byte{register}, data...))
		if err != nil {
			return fmt.Errorf("could not write register %#02x: %w", register, err)
		}
		return nil
	})
}

func (b *Bus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return b.with(ctx, address, func(board *i2c.GenericDriver) error {
		return board.Read(buffer)
	})
}

func (b *Bus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return b.with(ctx, address, func(board *i2c.GenericDriver) error {
		return board.Write(buffer)
	})
}

func (b *Bus) Release(ctx context.Context) error {
	return nil
}

func (b *Bus) with(ctx context.Context, address byte, do func(*i2c.GenericDriver) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	board := i2c.NewGenericDriver(b.connector, driverName, int(address), func(c i2c.Config) {
		if b.bus >= 0 {
			c.SetBus(b.bus)
		}
	})
	err := board.Start()
	if err != nil {
		return fmt.Errorf("start error at %#02x: %w", address, err)
	}
	defer func() {
		if err := board.Halt(); err != nil {
			slog.Warn("could not halt i2c driver", "addr", address, "error", err)
		}
	}()
	return do(board)
}
