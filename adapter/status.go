package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// MCP2221Status is the I2C engine part of the status report.
type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
	Cancelled              bool   `yaml:"cancelled"`
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// Release cancels the current I2C transfer, freeing a bus left busy by an interrupted transaction.
func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = statusCancel
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("cancel request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// bufferToStatus decodes the status report:
//
//	2       cancel transfer acknowledged (0x10)
//	9..10   requested I2C transfer length
//	11..12  already transferred bytes
//	13      internal I2C data buffer counter
//	14      I2C speed divider
//	15      I2C timeout
//	16..17  I2C address being used
//	25      read pending
func bufferToStatus(buffer []byte) *MCP2221Status {
	return &MCP2221Status{
		Cancelled:              buffer[2] == statusCancel,
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		ReadPending:            int(buffer[25]),
	}
}
