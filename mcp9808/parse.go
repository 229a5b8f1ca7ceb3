package mcp9808

import (
	"fmt"
	"strings"
)

// ParseResolution maps a name (min, low, avg, max), a step ("0.0625") or a 2-bit pattern ("11")
// to a Resolution.
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min", "00", "0.5":
		return ResolutionMin, nil
	case "low", "01", "0.25":
		return ResolutionLow, nil
	case "avg", "10", "0.125":
		return ResolutionAvg, nil
	case "max", "11", "0.0625":
		return ResolutionMax, nil
	}
	return Resolution{}, fmt.Errorf("%w: resolution %q", ErrInvalidMode, s)
}

// ParseHysteresis maps "0", "1.5", "3" or "6" (degrees Celsius) to a Hysteresis.
func ParseHysteresis(s string) (Hysteresis, error) {
	v := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "+"), "°C")
	for code, name := range hysteresisNames {
		if v == name {
			return Hysteresis{code: uint8(code)}, nil
		}
	}
	return Hysteresis{}, fmt.Errorf("%w: hysteresis %q", ErrInvalidMode, s)
}

func ParseAlertOutput(s string) (AlertOutput, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "comparator", "":
		return AlertComparator, nil
	case "interrupt":
		return AlertInterrupt, nil
	}
	return AlertComparator, fmt.Errorf("%w: alert output %q", ErrInvalidMode, s)
}

func ParseAlertPolarity(s string) (AlertPolarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active-low", "low", "":
		return AlertActiveLow, nil
	case "active-high", "high":
		return AlertActiveHigh, nil
	}
	return AlertActiveLow, fmt.Errorf("%w: alert polarity %q", ErrInvalidMode, s)
}

func ParseAlertSelect(s string) (AlertSelect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return AlertSelectAll, nil
	case "critical", "crit":
		return AlertSelectCritical, nil
	}
	return AlertSelectAll, fmt.Errorf("%w: alert select %q", ErrInvalidMode, s)
}

// ParseBoundary maps upper, lower or critical to a Boundary.
func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upper", "high":
		return BoundaryUpper, nil
	case "lower", "low":
		return BoundaryLower, nil
	case "critical", "crit":
		return BoundaryCritical, nil
	}
	return Boundary{}, fmt.Errorf("%w: boundary %q", ErrInvalidMode, s)
}
