package mcp9808

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Accessors(t *testing.T) {
	c := Config(0x0000)
	assert.False(t, c.Shutdown())
	assert.Equal(t, AlertSettings{}, c.Alert())
	assert.Equal(t, HysteresisNone, c.Hysteresis())

	c = Config(0x07FF)
	assert.True(t, c.Shutdown())
	assert.True(t, c.AlertEnabled())
	assert.True(t, c.AlertAsserted())
	assert.True(t, c.WindowLocked())
	assert.True(t, c.CriticalLocked())
	assert.Equal(t, AlertInterrupt, c.AlertOutput())
	assert.Equal(t, AlertActiveHigh, c.AlertPolarity())
	assert.Equal(t, AlertSelectCritical, c.AlertSelect())
	assert.Equal(t, HysteresisSix, c.Hysteresis())

	assert.Equal(t, HysteresisOneAndHalf, Config(0x0200).Hysteresis())
	assert.Equal(t, HysteresisThree, Config(0x0400).Hysteresis())
}

func TestConfig_SingleFieldUpdatesPreserveOtherBits(t *testing.T) {
	updates := []struct {
		name  string
		field Config
		apply func(Config) Config
	}{
		{"shutdown on", cfgShutdown, func(c Config) Config { return c.WithShutdown(true) }},
		{"shutdown off", cfgShutdown, func(c Config) Config { return c.WithShutdown(false) }},
		{"hysteresis", cfgHysteresisMask, func(c Config) Config { return c.WithHysteresis(HysteresisThree) }},
		{"alert", cfgAlertMask, func(c Config) Config {
			return c.WithAlert(AlertSettings{Enabled: true, Output: AlertInterrupt, Select: AlertSelectCritical})
		}},
		{"alert off", cfgAlertMask, func(c Config) Config { return c.WithAlert(AlertSettings{}) }},
		{"interrupt clear", cfgInterruptClear, func(c Config) Config { return c.WithInterruptClear(true) }},
	}
	for _, update := range updates {
		t.Run(update.name, func(t *testing.T) {
			for raw := 0; raw <= 0xFFFF; raw++ {
				before := Config(raw)
				after := update.apply(before)
				if changed := (before ^ after) &^ update.field; changed != 0 {
					t.Fatalf("%#04x -> %#04x touched bits %#04x outside the field", uint16(before), uint16(after), uint16(changed))
				}
			}
		})
	}
}

func TestConfig_ShutdownToggleIsInverse(t *testing.T) {
	for raw := 0; raw <= 0xFFFF; raw++ {
		c := Config(raw)
		if c.Shutdown() {
			continue
		}
		require.Equal(t, c, c.WithShutdown(true).WithShutdown(false))
	}
}

func TestPackConfig(t *testing.T) {
	t.Run("unpack then pack is identity", func(t *testing.T) {
		for raw := 0; raw <= 0xFFFF; raw++ {
			c := Config(raw)
			if got := PackConfig(c, UnpackConfig(c)); got != c {
				t.Fatalf("%#04x repacked as %#04x", raw, uint16(got))
			}
		}
	})
	t.Run("reserved and status bits survive", func(t *testing.T) {
		prev := Config(0xF8F0)
		got := PackConfig(prev, ConfigFields{
			Shutdown:   true,
			Hysteresis: HysteresisOneAndHalf,
			Alert:      AlertSettings{Enabled: true, Polarity: AlertActiveHigh},
		})
		assert.Equal(t, Config(0xFBFA), got)
	})
	t.Run("informational fields are not written", func(t *testing.T) {
		got := PackConfig(Config(0x0000), ConfigFields{AlertAsserted: true, WindowLocked: true, CriticalLocked: true})
		assert.Equal(t, Config(0x0000), got)
	})
}

func TestConfig_String(t *testing.T) {
	s := Config(0x0109).String()
	assert.Contains(t, s, "shutdown=true")
	assert.Contains(t, s, "enabled/interrupt/active-low/all")
}

func TestHysteresis(t *testing.T) {
	tests := []struct {
		given Hysteresis
		bits  uint8
		milli int
		text  string
	}{
		{HysteresisNone, 0b00, 0, "+0°C"},
		{HysteresisOneAndHalf, 0b01, 1500, "+1.5°C"},
		{HysteresisThree, 0b10, 3000, "+3°C"},
		{HysteresisSix, 0b11, 6000, "+6°C"},
	}
	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			assert.Equal(t, test.bits, test.given.Bits())
			assert.Equal(t, test.milli, test.given.Millidegrees())
			assert.Equal(t, test.text, test.given.String())
			parsed, err := ParseHysteresis(test.text)
			require.NoError(t, err)
			assert.Equal(t, test.given, parsed)
		})
	}
	assert.Equal(t, HysteresisNone, Hysteresis{})
	_, err := ParseHysteresis("2")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestParseAlertSettings(t *testing.T) {
	out, err := ParseAlertOutput("Interrupt")
	require.NoError(t, err)
	assert.Equal(t, AlertInterrupt, out)
	pol, err := ParseAlertPolarity("active-high")
	require.NoError(t, err)
	assert.Equal(t, AlertActiveHigh, pol)
	sel, err := ParseAlertSelect("crit")
	require.NoError(t, err)
	assert.Equal(t, AlertSelectCritical, sel)

	for _, bad := range []func() error{
		func() error { _, err := ParseAlertOutput("pulse"); return err },
		func() error { _, err := ParseAlertPolarity("sideways"); return err },
		func() error { _, err := ParseAlertSelect("some"); return err },
		func() error { _, err := ParseBoundary("middle"); return err },
	} {
		assert.ErrorIs(t, bad(), ErrInvalidMode)
	}
}

func TestBoundary(t *testing.T) {
	for _, name := range []string{"upper", "lower", "critical"} {
		t.Run(name, func(t *testing.T) {
			b, err := ParseBoundary(name)
			require.NoError(t, err)
			assert.Equal(t, name, b.String())
		})
	}
	assert.Equal(t, RegUpper, BoundaryUpper.Register())
	assert.Equal(t, RegLower, BoundaryLower.Register())
	assert.Equal(t, RegCritical, BoundaryCritical.Register())
	assert.Equal(t, RegUpper, Boundary{}.Register())
}
