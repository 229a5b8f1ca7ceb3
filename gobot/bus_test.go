package gobot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/thermo/mcp9808"
)

// fakeDevice keeps a register pointer the way the sensor does: the first byte of every
// write selects the register, the remaining bytes are stored, reads return the selected register.
type fakeDevice struct {
	i2c.Connection
	mu      sync.Mutex
	pointer byte
	regs    map[byte][]byte
	err     error
}

func (f *fakeDevice) Write(data []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.pointer = data[0]
	if len(data) > 1 {
		f.regs[f.pointer] = append([]byte(nil), data[1:]...)
	}
	return len(data), nil
}

func (f *fakeDevice) Read(data []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return copy(data, f.regs[f.pointer]), nil
}

func (f *fakeDevice) Close() error {
	return nil
}

type fakeConnector struct {
	dev     *fakeDevice
	address int
	bus     int
}

func (c *fakeConnector) GetI2cConnection(address int, busNr int) (i2c.Connection, error) {
	c.address = address
	c.bus = busNr
	if address != mcp9808.DefaultAddress {
		return nil, errors.New("no device")
	}
	return c.dev, nil
}

func (c *fakeConnector) DefaultI2cBus() int {
	return 0
}

func newFake() *fakeConnector {
	return &fakeConnector{dev: &fakeDevice{regs: map[byte][]byte{
		mcp9808.RegConfig:     {0x00, 0x00},
		mcp9808.RegAmbient:    {0x01, 0x91},
		mcp9808.RegResolution: {0x03},
	}}}
}

func TestBus_DrivesMCP9808(t *testing.T) {
	conn := newFake()
	dev := mcp9808.New(New(conn, WithBus(2)))
	ctx := context.Background()

	temp, err := dev.ReadTemperature(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25.0625, temp)
	assert.Equal(t, 2, conn.bus)
	assert.Equal(t, mcp9808.DefaultAddress, conn.address)

	require.NoError(t, dev.SetAlertBoundary(ctx, mcp9808.BoundaryUpper, 30))
	assert.Equal(t, []byte{0x01, 0xE0}, conn.dev.regs[mcp9808.RegUpper])

	require.NoError(t, dev.SetResolution(ctx, mcp9808.ResolutionLow))
	assert.Equal(t, []byte{0x01}, conn.dev.regs[mcp9808.RegResolution])
}

func TestBus_DefaultBus(t *testing.T) {
	conn := newFake()
	conn.bus = -1
	bus := New(conn)
	ctx := context.Background()
	require.NoError(t, bus.WriteToAddr(ctx, mcp9808.DefaultAddress, []byte{mcp9808.RegAmbient}))
	buf := make([]byte, 2)
	require.NoError(t, bus.ReadFromAddr(ctx, mcp9808.DefaultAddress, buf))
	assert.Equal(t, []byte{0x01, 0x91}, buf)
	assert.Equal(t, 0, conn.bus)
}

func TestBus_Errors(t *testing.T) {
	ctx := context.Background()
	conn := newFake()
	bus := New(conn)

	err := bus.ReadRegister(ctx, 0x1A, mcp9808.RegAmbient, make([]byte, 2))
	assert.ErrorContains(t, err, "start error")

	nack := errors.New("nack")
	conn.dev.err = nack
	assert.ErrorContains(t, bus.WriteRegister(ctx, mcp9808.DefaultAddress, mcp9808.RegConfig, []byte{0, 0}), "nack")
	assert.ErrorContains(t, bus.WriteToAddr(ctx, mcp9808.DefaultAddress, []byte{0x05}), "nack")

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, bus.ReadRegister(canceled, mcp9808.DefaultAddress, mcp9808.RegAmbient, make([]byte, 2)), context.Canceled)
	assert.NoError(t, bus.Release(ctx))
}
