package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/thermo/cmd/thermo/console"
	"github.com/mklimuk/thermo/mcp9808"
)

var tempCmd = cli.Command{
	Name:    "temperature",
	Aliases: []string{"temp"},
	Usage:   "read the ambient temperature",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "fixed", Usage: "decode with integer arithmetic only"},
		&cli.BoolFlag{Name: "flags", Usage: "show the raw word and boundary comparator flags"},
	},
	Action: func(c *cli.Context) error {
		return withDevice(c, func(ctx context.Context, dev *mcp9808.Device) error {
			if c.Bool("fixed") || c.Bool("flags") {
				sample, err := dev.ReadSample(ctx)
				if err != nil {
					return console.Exit(console.CodeFailure, "error getting temperature read: %s", console.Red(err))
				}
				console.Printf("%s %s\n", console.PictoThermometer, console.White(sample.Value))
				if c.Bool("flags") {
					console.Printf("raw %s critical %s upper %s lower %s\n",
						console.White(fmt.Sprintf("%#04x", sample.Raw)),
						console.OnOff(sample.Flags.AboveCritical),
						console.OnOff(sample.Flags.AboveUpper),
						console.OnOff(sample.Flags.BelowLower))
				}
				return nil
			}
			temp, err := dev.ReadTemperature(ctx)
			if err != nil {
				return console.Exit(console.CodeFailure, "error getting temperature read: %s", console.Red(err))
			}
			console.Printf("%s %s\n", console.PictoThermometer, console.White(fmt.Sprintf("%.4f°C", temp)))
			return nil
		})
	},
}

var identifyCmd = cli.Command{
	Name:  "identify",
	Usage: "check the manufacturer and device ID registers",
	Action: func(c *cli.Context) error {
		return withDevice(c, func(ctx context.Context, dev *mcp9808.Device) error {
			id, err := dev.Identify(ctx)
			if err != nil {
				return console.Exit(console.CodeFailure, "identification failed: %s", console.Red(err))
			}
			console.PInfof(console.PictoChip, "%s manufacturer %s device %s revision %s", dev,
				console.White(fmt.Sprintf("%#04x", id.ManufacturerID)),
				console.White(fmt.Sprintf("%#02x", id.DeviceID)),
				console.White(fmt.Sprintf("%#02x", id.Revision)))
			return nil
		})
	},
}
