package mcp9808

import (
	"fmt"
	"math"
	"strconv"

	"periph.io/x/conn/v3/physic"
)

// Temperature registers (T_A, T_UPPER, T_LOWER, T_CRIT) share one layout:
//
//	bit 15..13  alert flags (T_A only, read as zero elsewhere)
//	bit 12      sign
//	bit 11..0   value in 1/16 °C
//
// Sign and value form a 13-bit two's complement field, as documented by the datasheet.
const (
	tempFlagCritical uint16 = 1 << 15
	tempFlagUpper    uint16 = 1 << 14
	tempFlagLower    uint16 = 1 << 13
	tempSign         uint16 = 1 << 12
	tempFieldMask    uint16 = 0x1FFF
	tempFieldModulus int32  = 0x2000
	boundaryMask     uint16 = 0x1FFC
)

// Sensor operating range, the limits EncodeTemperature accepts.
const (
	MinTemperature = -40.0
	MaxTemperature = 125.0
)

// Step is the temperature value of one LSB of a temperature register.
const Step = 0.0625

const sixteenthDegree = 62_500 * physic.MicroKelvin

// DecodeTemperature converts a temperature register word into degrees Celsius.
// Alert flag bits are ignored.
func DecodeTemperature(raw uint16) float64 {
	upper := float64((raw>>8)&0x0F) * 16
	lower := float64(raw&0xFF) / 16
	temp := upper + lower
	if raw&tempSign != 0 {
		temp -= 256
	}
	return temp
}

// Fixed is a temperature as whole degrees plus sixteenths of a degree.
//
// Whole carries the sign whenever it is non-zero. Sixteenths is the magnitude of the
// fractional part (0..15). Negative is set for every reading below zero, so a reading of
// -0.5 °C, where Whole is zero, is {Whole: 0, Sixteenths: 8, Negative: true}.
type Fixed struct {
	Whole      int16
	Sixteenths uint8
	Negative   bool
}

// DecodeTemperatureFixed converts a temperature register word without any floating point operation.
func DecodeTemperatureFixed(raw uint16) Fixed {
	field := raw & tempFieldMask
	negative := field&tempSign != 0
	magnitude := field
	if negative {
		// two's complement magnitude within the 13-bit field
		magnitude = (^field + 1) & tempFieldMask
	}
	whole := int16(magnitude >> 4)
	if negative {
		whole = -whole
	}
	return Fixed{
		Whole:      whole,
		Sixteenths: uint8(magnitude & 0x0F),
		Negative:   negative,
	}
}

// Counts returns the signed temperature in sixteenths of a degree.
func (f Fixed) Counts() int32 {
	whole := int32(f.Whole)
	if whole < 0 {
		whole = -whole
	}
	counts := whole<<4 | int32(f.Sixteenths&0x0F)
	if f.Negative {
		return -counts
	}
	return counts
}

// Millidegrees returns the temperature in thousandths of a degree, truncated towards zero.
func (f Fixed) Millidegrees() int32 {
	return f.Counts() * 625 / 10
}

// Float returns the temperature in degrees Celsius.
func (f Fixed) Float() float64 {
	return float64(f.Counts()) * Step
}

// Temperature returns the temperature as a periph physic value.
func (f Fixed) Temperature() physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(f.Counts())*sixteenthDegree
}

// String formats the temperature with four decimals using integer arithmetic only.
func (f Fixed) String() string {
	whole := int(f.Whole)
	if whole < 0 {
		whole = -whole
	}
	sign := ""
	if f.Negative {
		sign = "-"
	}
	frac := strconv.Itoa(int(f.Sixteenths&0x0F) * 625)
	for len(frac) < 4 {
		frac = "0" + frac
	}
	return sign + strconv.Itoa(whole) + "." + frac + "°C"
}

// Flags are the comparator results latched into bits 15..13 of the T_A register.
type Flags struct {
	AboveCritical bool
	AboveUpper    bool
	BelowLower    bool
}

// DecodeFlags extracts the alert comparator flags from a T_A register word.
func DecodeFlags(raw uint16) Flags {
	return Flags{
		AboveCritical: raw&tempFlagCritical != 0,
		AboveUpper:    raw&tempFlagUpper != 0,
		BelowLower:    raw&tempFlagLower != 0,
	}
}

// EncodeTemperature converts degrees Celsius into a temperature register word,
// rounding to the nearest 1/16 °C.
func EncodeTemperature(celsius float64) (uint16, error) {
	if err := checkRange(celsius); err != nil {
		return 0, err
	}
	return encodeCounts(int32(math.Round(celsius * 16))), nil
}

// EncodeBoundary converts degrees Celsius into a boundary register word. Boundary
// registers hold 0.25 °C steps, so the value is rounded to the nearest quarter degree.
func EncodeBoundary(celsius float64) (uint16, error) {
	if err := checkRange(celsius); err != nil {
		return 0, err
	}
	quarters := int32(math.Round(celsius * 4))
	return encodeCounts(quarters*4) & boundaryMask, nil
}

func checkRange(celsius float64) error {
	if math.IsNaN(celsius) || celsius < MinTemperature || celsius > MaxTemperature {
		return fmt.Errorf("%w: %g°C not within [%g, %g]", ErrOutOfRange, celsius, MinTemperature, MaxTemperature)
	}
	return nil
}

func encodeCounts(counts int32) uint16 {
	if counts < 0 {
		counts += tempFieldModulus
	}
	return uint16(counts) & tempFieldMask
}
