// Package mcp9808 drives the Microchip MCP9808 digital temperature sensor.
// See: https://ww1.microchip.com/downloads/en/DeviceDoc/25095A.pdf
//
// The package has two layers. The register codec (DecodeTemperature, EncodeTemperature,
// Config, ResolutionRegister, ...) is pure and performs no I/O. Device performs exactly one
// register read and/or write per call through an injected thermo.RegisterBus and keeps no
// register state between calls.
//
// Device is not safe for concurrent use; callers sharing a bus serialize calls themselves.
package mcp9808

import "fmt"

// DefaultAddress is the 7-bit bus address with A2..A0 tied low.
const DefaultAddress = 0x18

// Register pointers.
const (
	RegConfig         byte = 0x01
	RegUpper          byte = 0x02
	RegLower          byte = 0x03
	RegCritical       byte = 0x04
	RegAmbient        byte = 0x05
	RegManufacturerID byte = 0x06
	RegDeviceID       byte = 0x07
	RegResolution     byte = 0x08
)

// Expected identification values.
const (
	ManufacturerID uint16 = 0x0054
	DeviceID       uint8  = 0x04
)

func registerName(reg byte) string {
	switch reg {
	case RegConfig:
		return "CONFIG"
	case RegUpper:
		return "T_UPPER"
	case RegLower:
		return "T_LOWER"
	case RegCritical:
		return "T_CRIT"
	case RegAmbient:
		return "T_A"
	case RegManufacturerID:
		return "MANUFACTURER_ID"
	case RegDeviceID:
		return "DEVICE_ID"
	case RegResolution:
		return "RESOLUTION"
	default:
		return fmt.Sprintf("REG_%02X", reg)
	}
}
