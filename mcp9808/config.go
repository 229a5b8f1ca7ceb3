package mcp9808

import "fmt"

// Config is the content of the CONFIG register (0x01).
//
//	bit 15..11  reserved, preserved on writes
//	bit 10..9   T_HYST
//	bit 8       SHDN
//	bit 7       Crit. Lock
//	bit 6       Win. Lock
//	bit 5       Int. Clear
//	bit 4       Alert Stat. (read-only)
//	bit 3       Alert Cnt.
//	bit 2       Alert Sel.
//	bit 1       Alert Pol.
//	bit 0       Alert Mod.
type Config uint16

const (
	cfgAlertOutput    Config = 1 << 0
	cfgAlertPolarity  Config = 1 << 1
	cfgAlertSelect    Config = 1 << 2
	cfgAlertEnable    Config = 1 << 3
	cfgAlertStatus    Config = 1 << 4
	cfgInterruptClear Config = 1 << 5
	cfgWindowLock     Config = 1 << 6
	cfgCriticalLock   Config = 1 << 7
	cfgShutdown       Config = 1 << 8

	cfgHysteresisShift        = 9
	cfgHysteresisMask  Config = 0x03 << cfgHysteresisShift

	cfgAlertMask = cfgAlertOutput | cfgAlertPolarity | cfgAlertSelect | cfgAlertEnable
	cfgLockMask  = cfgWindowLock | cfgCriticalLock
)

func (c Config) with(bit Config, set bool) Config {
	if set {
		return c | bit
	}
	return c &^ bit
}

func (c Config) Shutdown() bool       { return c&cfgShutdown != 0 }
func (c Config) AlertEnabled() bool   { return c&cfgAlertEnable != 0 }
func (c Config) AlertAsserted() bool  { return c&cfgAlertStatus != 0 }
func (c Config) WindowLocked() bool   { return c&cfgWindowLock != 0 }
func (c Config) CriticalLocked() bool { return c&cfgCriticalLock != 0 }
func (c Config) Locked() bool         { return c&cfgLockMask != 0 }

// BoundaryLocked reports whether the lock guarding b is set.
func (c Config) BoundaryLocked(b Boundary) bool {
	if b.Register() == RegCritical {
		return c.CriticalLocked()
	}
	return c.WindowLocked()
}

func (c Config) AlertOutput() AlertOutput     { return AlertOutput(c&cfgAlertOutput != 0) }
func (c Config) AlertPolarity() AlertPolarity { return AlertPolarity(c&cfgAlertPolarity != 0) }
func (c Config) AlertSelect() AlertSelect     { return AlertSelect(c&cfgAlertSelect != 0) }

func (c Config) Hysteresis() Hysteresis {
	return Hysteresis{code: uint8((c & cfgHysteresisMask) >> cfgHysteresisShift)}
}

// WithShutdown returns c with only the SHDN bit changed.
func (c Config) WithShutdown(shutdown bool) Config {
	return c.with(cfgShutdown, shutdown)
}

// WithHysteresis returns c with only the T_HYST field changed.
func (c Config) WithHysteresis(h Hysteresis) Config {
	return (c &^ cfgHysteresisMask) | (Config(h.Bits()) << cfgHysteresisShift)
}

// WithAlert returns c with only the four alert control bits changed.
func (c Config) WithAlert(a AlertSettings) Config {
	c = c.with(cfgAlertEnable, a.Enabled)
	c = c.with(cfgAlertOutput, bool(a.Output))
	c = c.with(cfgAlertPolarity, bool(a.Polarity))
	return c.with(cfgAlertSelect, bool(a.Select))
}

// WithInterruptClear returns c with the Int. Clear bit set or cleared.
func (c Config) WithInterruptClear(clear bool) Config {
	return c.with(cfgInterruptClear, clear)
}

func (c Config) Alert() AlertSettings {
	return AlertSettings{
		Enabled:  c.AlertEnabled(),
		Output:   c.AlertOutput(),
		Polarity: c.AlertPolarity(),
		Select:   c.AlertSelect(),
	}
}

func (c Config) String() string {
	return fmt.Sprintf("config(%#04x shutdown=%t hysteresis=%s alert=%s asserted=%t locked=%t)",
		uint16(c), c.Shutdown(), c.Hysteresis(), c.Alert(), c.AlertAsserted(), c.Locked())
}

// ConfigFields is the unpacked form of the CONFIG register. The status and lock
// fields are informational: PackConfig never writes them.
type ConfigFields struct {
	Shutdown   bool
	Hysteresis Hysteresis
	Alert      AlertSettings

	AlertAsserted  bool
	WindowLocked   bool
	CriticalLocked bool
}

// UnpackConfig splits a CONFIG register word into named fields.
func UnpackConfig(c Config) ConfigFields {
	return ConfigFields{
		Shutdown:       c.Shutdown(),
		Hysteresis:     c.Hysteresis(),
		Alert:          c.Alert(),
		AlertAsserted:  c.AlertAsserted(),
		WindowLocked:   c.WindowLocked(),
		CriticalLocked: c.CriticalLocked(),
	}
}

// PackConfig writes the writable fields of f onto prev, a word previously read from
// the device. Reserved, status and lock bits of prev are kept as they are.
func PackConfig(prev Config, f ConfigFields) Config {
	return prev.WithShutdown(f.Shutdown).WithHysteresis(f.Hysteresis).WithAlert(f.Alert)
}

// AlertOutput selects how the ALERT pin reports: comparator output or latched interrupt.
type AlertOutput bool

const (
	AlertComparator AlertOutput = false
	AlertInterrupt  AlertOutput = true
)

func (o AlertOutput) String() string {
	if o == AlertInterrupt {
		return "interrupt"
	}
	return "comparator"
}

// AlertPolarity selects the active level of the ALERT pin.
type AlertPolarity bool

const (
	AlertActiveLow  AlertPolarity = false
	AlertActiveHigh AlertPolarity = true
)

func (p AlertPolarity) String() string {
	if p == AlertActiveHigh {
		return "active-high"
	}
	return "active-low"
}

// AlertSelect chooses which boundaries drive the ALERT pin.
type AlertSelect bool

const (
	// AlertSelectAll asserts on T_A > T_UPPER, T_A < T_LOWER or T_A > T_CRIT.
	AlertSelectAll AlertSelect = false
	// AlertSelectCritical asserts on T_A > T_CRIT only.
	AlertSelectCritical AlertSelect = true
)

func (s AlertSelect) String() string {
	if s == AlertSelectCritical {
		return "critical"
	}
	return "all"
}

// AlertSettings are the four alert control bits of the CONFIG register.
// The zero value is the power-on state: disabled, comparator, active-low, all boundaries.
type AlertSettings struct {
	Enabled  bool
	Output   AlertOutput
	Polarity AlertPolarity
	Select   AlertSelect
}

func (a AlertSettings) String() string {
	state := "disabled"
	if a.Enabled {
		state = "enabled"
	}
	return fmt.Sprintf("%s/%s/%s/%s", state, a.Output, a.Polarity, a.Select)
}

// Hysteresis is the T_HYST setting applied to boundary comparisons.
// Only the four values declared below exist; the zero value is HysteresisNone.
type Hysteresis struct {
	code uint8
}

var (
	HysteresisNone       = Hysteresis{code: 0b00}
	HysteresisOneAndHalf = Hysteresis{code: 0b01}
	HysteresisThree      = Hysteresis{code: 0b10}
	HysteresisSix        = Hysteresis{code: 0b11}
)

var hysteresisNames = [4]string{"0", "1.5", "3", "6"}
var hysteresisMillidegrees = [4]int{0, 1500, 3000, 6000}

// Bits returns the 2-bit T_HYST field value.
func (h Hysteresis) Bits() uint8 { return h.code & 0x03 }

func (h Hysteresis) Millidegrees() int { return hysteresisMillidegrees[h.Bits()] }

func (h Hysteresis) String() string { return "+" + hysteresisNames[h.Bits()] + "°C" }
