package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func read(t *testing.T, d *Device, reg byte) uint16 {
	t.Helper()
	buf := make([]byte, width(reg))
	require.NoError(t, d.ReadRegister(context.Background(), 0x18, reg, buf))
	if len(buf) == 1 {
		return uint16(buf[0])
	}
	return uint16(buf[0])<<8 | uint16(buf[1])
}

func write(t *testing.T, d *Device, reg byte, value uint16) {
	t.Helper()
	data := []byte{byte(value >> 8), byte(value)}
	if width(reg) == 1 {
		data = []byte{byte(value)}
	}
	require.NoError(t, d.WriteRegister(context.Background(), 0x18, reg, data))
}

func TestDevice_PowerOn(t *testing.T) {
	d := New()
	assert.Equal(t, uint16(0x0000), read(t, d, regConfig))
	assert.Equal(t, uint16(0x0054), read(t, d, regManufacturer))
	assert.Equal(t, uint16(0x0400), read(t, d, regDevice))
	assert.Equal(t, uint16(0x0003), read(t, d, regResolution))
	// 25 °C is above the 0 °C power-on boundaries
	assert.Equal(t, uint16(0xC190), read(t, d, regAmbient))
}

func TestDevice_Addressing(t *testing.T) {
	d := New(WithAddress(0x1A))
	buf := make([]byte, 2)
	assert.ErrorIs(t, d.ReadRegister(context.Background(), 0x18, regAmbient, buf), ErrNoDevice)
	assert.NoError(t, d.ReadRegister(context.Background(), 0x1A, regAmbient, buf))
	assert.ErrorIs(t, d.ReadRegister(context.Background(), 0x1A, 0x09, buf), ErrUnknownRegister)
	assert.ErrorIs(t, d.ReadRegister(context.Background(), 0x1A, regResolution, buf), ErrLength)
	assert.ErrorIs(t, d.WriteRegister(context.Background(), 0x1A, regConfig, []byte{0x01}), ErrLength)
}

func TestDevice_ReadOnlyRegisters(t *testing.T) {
	d := New()
	for _, reg := range []byte{regAmbient, regManufacturer, regDevice} {
		err := d.WriteRegister(context.Background(), 0x18, reg, []byte{0x00, 0x00})
		assert.ErrorIs(t, err, ErrReadOnly)
	}
	assert.Zero(t, d.Writes())
}

func TestDevice_BoundaryGranularity(t *testing.T) {
	d := New()
	write(t, d, regUpper, 0x01E7)
	assert.Equal(t, uint16(0x01E4), read(t, d, regUpper))
	write(t, d, regLower, 0xFF63)
	assert.Equal(t, uint16(0x1F60), read(t, d, regLower))
}

func TestDevice_ConfigRules(t *testing.T) {
	t.Run("status bit is read-only", func(t *testing.T) {
		d := New()
		write(t, d, regConfig, 0x0010)
		assert.Zero(t, read(t, d, regConfig)&cfgAlertStatus)
	})
	t.Run("interrupt clear reads back as zero", func(t *testing.T) {
		d := New()
		write(t, d, regConfig, 0x0020)
		assert.Zero(t, read(t, d, regConfig)&cfgInterruptClear)
	})
	t.Run("locks are sticky and freeze alert bits", func(t *testing.T) {
		d := New()
		write(t, d, regConfig, 0x0088)
		write(t, d, regConfig, 0x0001)
		cfg := read(t, d, regConfig)
		assert.Equal(t, uint16(0x0080), cfg&cfgLockBits)
		assert.Equal(t, uint16(0x0008), cfg&cfgAlertBits)
	})
	t.Run("locks freeze hysteresis", func(t *testing.T) {
		d := New()
		write(t, d, regConfig, 0x0280)
		write(t, d, regConfig, 0x0680)
		assert.Equal(t, uint16(0x0200), read(t, d, regConfig)&cfgHysteresisBits)
	})
	t.Run("shutdown stays writable while locked", func(t *testing.T) {
		d := New()
		write(t, d, regConfig, 0x0040)
		write(t, d, regConfig, 0x0140)
		assert.Equal(t, uint16(0x0140), read(t, d, regConfig)&^cfgAlertStatus)
	})
}

func TestDevice_BoundaryLocks(t *testing.T) {
	t.Run("window lock freezes upper and lower", func(t *testing.T) {
		d := New()
		write(t, d, regCritical, 0x0500)
		write(t, d, regConfig, 0x0040)
		write(t, d, regUpper, 0x01E0)
		write(t, d, regLower, 0x00A0)
		write(t, d, regCritical, 0x0600)
		assert.Zero(t, read(t, d, regUpper))
		assert.Zero(t, read(t, d, regLower))
		assert.Equal(t, uint16(0x0600), read(t, d, regCritical))
	})
	t.Run("critical lock freezes critical only", func(t *testing.T) {
		d := New()
		write(t, d, regConfig, 0x0080)
		write(t, d, regCritical, 0x0500)
		write(t, d, regUpper, 0x01E0)
		assert.Zero(t, read(t, d, regCritical))
		assert.Equal(t, uint16(0x01E0), read(t, d, regUpper))
	})
}

func TestDevice_ComparatorAlert(t *testing.T) {
	d := New(WithAmbient(20))
	write(t, d, regUpper, 0x01E0)    // 30 °C
	write(t, d, regLower, 0x0000)    // 0 °C
	write(t, d, regCritical, 0x0500) // 80 °C
	write(t, d, regConfig, 0x0008)
	assert.Zero(t, read(t, d, regConfig)&cfgAlertStatus)
	assert.Equal(t, uint16(0x0140), read(t, d, regAmbient))

	d.SetAmbient(31)
	assert.NotZero(t, read(t, d, regConfig)&cfgAlertStatus)
	assert.Equal(t, uint16(0x41F0), read(t, d, regAmbient))

	d.SetAmbient(25)
	assert.Zero(t, read(t, d, regConfig)&cfgAlertStatus)

	d.SetAmbient(-5)
	assert.NotZero(t, read(t, d, regConfig)&cfgAlertStatus)
	assert.Equal(t, uint16(0x2000)|toField(-80), read(t, d, regAmbient))
}

func TestDevice_InterruptAlert(t *testing.T) {
	d := New(WithAmbient(20))
	write(t, d, regUpper, 0x01E0)
	write(t, d, regCritical, 0x0500)
	write(t, d, regConfig, 0x0009)

	d.SetAmbient(31)
	assert.NotZero(t, read(t, d, regConfig)&cfgAlertStatus)
	d.SetAmbient(25)
	assert.NotZero(t, read(t, d, regConfig)&cfgAlertStatus, "interrupt output stays latched")

	write(t, d, regConfig, 0x0029)
	cfg := read(t, d, regConfig)
	assert.Zero(t, cfg&cfgAlertStatus)
	assert.Equal(t, uint16(0x0009), cfg)
}

func TestDevice_CriticalOnly(t *testing.T) {
	d := New(WithAmbient(20))
	write(t, d, regUpper, 0x01E0)
	write(t, d, regCritical, 0x0500)
	write(t, d, regConfig, 0x000C)

	d.SetAmbient(50)
	assert.Zero(t, read(t, d, regConfig)&cfgAlertStatus)
	d.SetAmbient(80)
	assert.NotZero(t, read(t, d, regConfig)&cfgAlertStatus)
	assert.Equal(t, uint16(0xC500), read(t, d, regAmbient))
}

func TestDevice_SetAmbientRaw(t *testing.T) {
	d := New()
	write(t, d, regUpper, 0x07D0)
	write(t, d, regCritical, 0x07D0)
	d.SetAmbientRaw(0xFFF8)
	assert.Equal(t, uint16(0x3FF8), read(t, d, regAmbient))
}

func TestDevice_Clamp(t *testing.T) {
	assert.Equal(t, int32(4095), toCounts(1000))
	assert.Equal(t, int32(-4096), toCounts(-1000))
	assert.Equal(t, int32(-640), fromField(toField(-640)))
	assert.Equal(t, uint16(0x1D80), toField(-640))
}

func TestDevice_FaultsAndLog(t *testing.T) {
	d := New()
	boom := errors.New("boom")
	d.FailNext(regConfig, boom)
	buf := make([]byte, 2)
	assert.ErrorIs(t, d.ReadRegister(context.Background(), 0x18, regConfig, buf), boom)
	assert.NoError(t, d.ReadRegister(context.Background(), 0x18, regConfig, buf))

	write(t, d, regResolution, 0x0001)
	ops := d.Ops()
	require.Len(t, ops, 2)
	assert.Equal(t, Op{Register: regConfig, Data: []byte{0x00, 0x00}}, ops[0])
	assert.Equal(t, Op{Write: true, Register: regResolution, Data: []byte{0x01}}, ops[1])
	assert.Equal(t, 1, d.Writes())

	d.Reset()
	assert.Empty(t, d.Ops())
	d.SetRegister(regConfig, 0x0100)
	assert.Equal(t, uint16(0x0100), d.Register(regConfig))
}

func TestDevice_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := New()
	assert.ErrorIs(t, d.ReadRegister(ctx, 0x18, regAmbient, make([]byte, 2)), context.Canceled)
	assert.ErrorIs(t, d.WriteRegister(ctx, 0x18, regConfig, []byte{0, 0}), context.Canceled)
}
