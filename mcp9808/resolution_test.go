package mcp9808

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolution_Table(t *testing.T) {
	tests := []struct {
		given      Resolution
		bits       uint8
		step       float64
		conversion time.Duration
		rate       int
		name       string
	}{
		{ResolutionMin, 0b00, 0.5, 30 * time.Millisecond, 33, "min"},
		{ResolutionLow, 0b01, 0.25, 65 * time.Millisecond, 15, "low"},
		{ResolutionAvg, 0b10, 0.125, 130 * time.Millisecond, 7, "avg"},
		{ResolutionMax, 0b11, 0.0625, 250 * time.Millisecond, 4, "max"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.bits, test.given.Bits())
			assert.Equal(t, test.step, test.given.Step())
			assert.Equal(t, test.conversion, test.given.ConversionTime())
			assert.Equal(t, test.rate, test.given.SamplesPerSecond())
			assert.Equal(t, test.name, test.given.String())
			assert.Equal(t, test.given, ResolutionRegister(test.bits).Resolution())
		})
	}
	assert.Equal(t, ResolutionMin, Resolution{})
	assert.Equal(t, ResolutionMax, DefaultResolution)
	assert.Len(t, Resolutions(), 4)
}

func TestResolutionRegister_PreservesUpperBits(t *testing.T) {
	for raw := 0; raw <= 0xFF; raw++ {
		reg := ResolutionRegister(raw)
		for _, res := range Resolutions() {
			next := reg.WithResolution(res)
			assert.Equal(t, res, next.Resolution())
			assert.Equal(t, reg&^resolutionMask, next&^resolutionMask)
		}
	}
	assert.Equal(t, ResolutionRegister(0x03), ResolutionRegister(0x00).WithResolution(ResolutionMax))
	assert.Equal(t, ResolutionRegister(0xFC), ResolutionRegister(0xFF).WithResolution(ResolutionMin))
}

func TestParseResolution(t *testing.T) {
	tests := map[string]Resolution{
		"min":    ResolutionMin,
		"LOW":    ResolutionLow,
		" avg ":  ResolutionAvg,
		"max":    ResolutionMax,
		"11":     ResolutionMax,
		"0.0625": ResolutionMax,
		"0.5":    ResolutionMin,
	}
	for given, expected := range tests {
		t.Run(given, func(t *testing.T) {
			res, err := ParseResolution(given)
			require.NoError(t, err)
			assert.Equal(t, expected, res)
		})
	}
	_, err := ParseResolution("ultra")
	assert.ErrorIs(t, err, ErrInvalidMode)
}
