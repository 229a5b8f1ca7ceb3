package tinygo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers"

	"github.com/mklimuk/thermo/mcp9808"
)

var _ drivers.I2C = (*fakeI2C)(nil)

type tx struct {
	addr uint16
	w    []byte
	rn   int
}

// fakeI2C answers register reads from a register file and records every transaction.
type fakeI2C struct {
	mu   sync.Mutex
	regs map[byte][]byte
	log  []tx
	err  error
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, tx{addr: addr, w: append([]byte(nil), w...), rn: len(r)})
	if f.err != nil {
		return f.err
	}
	if len(w) == 0 {
		return nil
	}
	if len(r) > 0 {
		copy(r, f.regs[w[0]])
		return nil
	}
	f.regs[w[0]] = append([]byte(nil), w[1:]...)
	return nil
}

func TestBus_Registers(t *testing.T) {
	fake := &fakeI2C{regs: map[byte][]byte{0x05: {0x01, 0x90}}}
	bus := New(fake)
	ctx := context.Background()

	buf := make([]byte, 2)
	require.NoError(t, bus.ReadRegister(ctx, 0x18, 0x05, buf))
	assert.Equal(t, []byte{0x01, 0x90}, buf)

	require.NoError(t, bus.WriteRegister(ctx, 0x18, 0x02, []byte{0x01, 0xE0}))
	assert.Equal(t, []byte{0x01, 0xE0}, fake.regs[0x02])

	long := []byte{0x01, 0x02, 0x03, 0x04}
	require.NoError(t, bus.WriteRegister(ctx, 0x18, 0x10, long))
	assert.Equal(t, long, fake.regs[0x10])

	require.Len(t, fake.log, 3)
	assert.Equal(t, tx{addr: 0x18, w: []byte{0x05}, rn: 2}, fake.log[0])
	assert.Equal(t, tx{addr: 0x18, w: []byte{0x02, 0x01, 0xE0}}, fake.log[1])
}

func TestBus_RawTransfers(t *testing.T) {
	fake := &fakeI2C{regs: map[byte][]byte{}}
	bus := New(fake)
	ctx := context.Background()
	require.NoError(t, bus.WriteToAddr(ctx, 0x18, []byte{0x01, 0x00, 0x08}))
	require.NoError(t, bus.ReadFromAddr(ctx, 0x18, make([]byte, 2)))
	require.NoError(t, bus.Release(ctx))
	assert.Equal(t, []byte{0x00, 0x08}, fake.regs[0x01])
	assert.Equal(t, tx{addr: 0x18, rn: 2}, fake.log[1])
}

func TestBus_Errors(t *testing.T) {
	nack := errors.New("nack")
	bus := New(&fakeI2C{regs: map[byte][]byte{}, err: nack})
	ctx := context.Background()
	assert.ErrorIs(t, bus.ReadRegister(ctx, 0x18, 0x05, make([]byte, 2)), nack)
	assert.ErrorIs(t, bus.WriteRegister(ctx, 0x18, 0x01, []byte{0, 0}), nack)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, bus.ReadRegister(canceled, 0x18, 0x05, make([]byte, 2)), context.Canceled)
}

func TestBus_DrivesMCP9808(t *testing.T) {
	fake := &fakeI2C{regs: map[byte][]byte{
		mcp9808.RegConfig:     {0x00, 0x00},
		mcp9808.RegAmbient:    {0x1F, 0xF8},
		mcp9808.RegResolution: {0x00},
	}}
	dev := mcp9808.New(New(fake))
	ctx := context.Background()

	temp, err := dev.ReadTemperature(ctx)
	require.NoError(t, err)
	assert.Equal(t, -0.5, temp)

	require.NoError(t, dev.EnterShutdown(ctx))
	assert.Equal(t, []byte{0x01, 0x00}, fake.regs[mcp9808.RegConfig])

	require.NoError(t, dev.SetResolution(ctx, mcp9808.ResolutionAvg))
	assert.Equal(t, []byte{0x02}, fake.regs[mcp9808.RegResolution])
}
