package adapter

import (
	"context"
	"fmt"
)

// The four GP pins of the bridge can watch the sensor ALERT output.

type GPIOMode byte

const (
	GPIOModeOut         GPIOMode = 0b00000000
	GPIOModeIn          GPIOMode = 0b00001000
	GPIOModeNoOperation GPIOMode = 0xEF
)

func (m GPIOMode) String() string {
	switch m {
	case GPIOModeIn:
		return "INPUT"
	case GPIOModeOut:
		return "OUTPUT"
	default:
		return "NOOP"
	}
}

// GPIODesignation selects the pin function; zero is plain GPIO on every pin.
type GPIODesignation byte

const GPIOOperation GPIODesignation = 0b00000000

const gpioModeMask = 0b00001000
const gpioOperationMask = 0b00000111

// GPIOPins is the number of GP pins.
const GPIOPins = 4

type GPIOValue struct {
	Mode  GPIOMode `yaml:"mode"`
	Value byte     `yaml:"value"`
}

type GPIOParameter struct {
	Mode        GPIOMode        `yaml:"mode"`
	Designation GPIODesignation `yaml:"designation"`
}

func (d *MCP2221) ReadGPIO(ctx context.Context) ([GPIOPins]GPIOValue, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	var res [GPIOPins]GPIOValue
	d.resetBuffers()
	d.request[0] = cmdGetGPIO
	err := d.send(ctx)
	if err != nil {
		return res, fmt.Errorf("read GPIO values command failed: %w", err)
	}
	if d.response[1] == statusBusy {
		return res, ErrCommandFailed
	}
	for i := range res {
		value, dir := d.response[2+2*i], d.response[3+2*i]
		res[i] = GPIOValue{Mode: GPIOModeNoOperation, Value: value}
		if dir != byte(GPIOModeNoOperation) {
			res[i].Mode = GPIOMode(dir << 3)
		}
	}
	return res, nil
}

func (d *MCP2221) GetGPIOParameters(ctx context.Context) ([GPIOPins]GPIOParameter, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	var res [GPIOPins]GPIOParameter
	d.resetBuffers()
	d.request[0] = cmdReadFlash
	d.request[1] = 0x01
	err := d.send(ctx)
	if err != nil {
		return res, fmt.Errorf("get GP parameters command failed: %w", err)
	}
	if d.response[1] == statusBusy {
		return res, ErrCommandUnsupported
	}
	for i := range res {
		b := d.response[4+i]
		res[i] = GPIOParameter{Mode: GPIOMode(b & gpioModeMask), Designation: GPIODesignation(b & gpioOperationMask)}
	}
	return res, nil
}

func (d *MCP2221) SetGPIOParameters(ctx context.Context, params [GPIOPins]GPIOParameter) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdWriteFlash
	d.request[1] = 0x01
	for i, p := range params {
		d.request[2+i] = byte(p.Designation) | byte(p.Mode)
	}
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("set GP parameters command failed: %w", err)
	}
	if d.response[1] == statusBusy {
		return ErrCommandFailed
	}
	return nil
}

// AlertLevel reads the level of the GP pin wired to the sensor ALERT output.
// The pin must be configured as a GPIO input.
func (d *MCP2221) AlertLevel(ctx context.Context, pin int) (bool, error) {
	if pin < 0 || pin >= GPIOPins {
		return false, fmt.Errorf("no GP pin %d", pin)
	}
	values, err := d.ReadGPIO(ctx)
	if err != nil {
		return false, err
	}
	if values[pin].Mode != GPIOModeIn {
		return false, fmt.Errorf("GP%d is not an input (%s)", pin, values[pin].Mode)
	}
	return values[pin].Value != 0, nil
}
