package mcp9808

import "time"

// Resolution is the conversion resolution of the ambient temperature register.
// Only the four values declared below exist; the zero value is ResolutionMin.
type Resolution struct {
	code uint8
}

var (
	ResolutionMin = Resolution{code: 0b00}
	ResolutionLow = Resolution{code: 0b01}
	ResolutionAvg = Resolution{code: 0b10}
	ResolutionMax = Resolution{code: 0b11}
)

// DefaultResolution is the power-on resolution. The driver assumes it but never writes it;
// callers depending on it should read the register once at startup.
var DefaultResolution = ResolutionMax

type resolutionInfo struct {
	name       string
	step       float64
	conversion time.Duration
	rate       int
}

var resolutionTable = [4]resolutionInfo{
	{name: "min", step: 0.5, conversion: 30 * time.Millisecond, rate: 33},
	{name: "low", step: 0.25, conversion: 65 * time.Millisecond, rate: 15},
	{name: "avg", step: 0.125, conversion: 130 * time.Millisecond, rate: 7},
	{name: "max", step: 0.0625, conversion: 250 * time.Millisecond, rate: 4},
}

// Resolutions lists every resolution from coarsest to finest.
func Resolutions() []Resolution {
	return []Resolution{ResolutionMin, ResolutionLow, ResolutionAvg, ResolutionMax}
}

// Bits returns the 2-bit register pattern.
func (r Resolution) Bits() uint8 { return r.code & 0x03 }

// Step returns the temperature step in degrees Celsius.
func (r Resolution) Step() float64 { return resolutionTable[r.Bits()].step }

// ConversionTime returns the typical time of one conversion.
func (r Resolution) ConversionTime() time.Duration { return resolutionTable[r.Bits()].conversion }

// SamplesPerSecond returns the typical sampling rate.
func (r Resolution) SamplesPerSecond() int { return resolutionTable[r.Bits()].rate }

func (r Resolution) String() string { return resolutionTable[r.Bits()].name }

// ResolutionRegister is the content of the RESOLUTION register (0x08).
// Bits 1..0 hold the resolution, bits 7..2 are preserved on writes.
type ResolutionRegister uint8

const resolutionMask ResolutionRegister = 0x03

func (r ResolutionRegister) Resolution() Resolution {
	return Resolution{code: uint8(r & resolutionMask)}
}

// WithResolution returns r with only bits 1..0 changed.
func (r ResolutionRegister) WithResolution(res Resolution) ResolutionRegister {
	return r&^resolutionMask | ResolutionRegister(res.Bits())
}
