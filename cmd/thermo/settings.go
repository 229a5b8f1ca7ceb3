package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/thermo/cmd/thermo/console"
	"github.com/mklimuk/thermo/mcp9808"
)

var shutdownCmd = cli.Command{
	Name:      "shutdown",
	Usage:     "enter or leave low power shutdown",
	ArgsUsage: "on|off",
	Action: func(c *cli.Context) error {
		var enter bool
		switch c.Args().First() {
		case "on":
			enter = true
		case "off":
			enter = false
		default:
			return console.Exit(console.CodeUsage, "expected on or off, got %q", c.Args().First())
		}
		return withDevice(c, func(ctx context.Context, dev *mcp9808.Device) error {
			var err error
			if enter {
				err = dev.EnterShutdown(ctx)
			} else {
				err = dev.ExitShutdown(ctx)
			}
			if err != nil {
				return console.Exit(console.CodeFailure, "could not change shutdown mode: %s", console.Red(err))
			}
			console.PInfof(console.PictoSleep, "shutdown %s", console.OnOff(enter))
			return nil
		})
	},
}

var resolutionCmd = cli.Command{
	Name:  "resolution",
	Usage: "read or change the conversion resolution",
	Subcommands: cli.Commands{
		{
			Name: "get",
			Action: func(c *cli.Context) error {
				return withDevice(c, func(ctx context.Context, dev *mcp9808.Device) error {
					res, err := dev.ReadResolution(ctx)
					if err != nil {
						return console.Exit(console.CodeFailure, "could not read resolution: %s", console.Red(err))
					}
					console.Printf("%s step %g°C conversion %s\n", console.White(res), res.Step(), res.ConversionTime())
					return nil
				})
			},
		},
		{
			Name:      "set",
			ArgsUsage: "min|low|avg|max",
			Action: func(c *cli.Context) error {
				res, err := mcp9808.ParseResolution(c.Args().First())
				if err != nil {
					return console.Exit(console.CodeUsage, "%s", console.Red(err))
				}
				return withDevice(c, func(ctx context.Context, dev *mcp9808.Device) error {
					err := dev.SetResolution(ctx, res)
					if err != nil {
						return console.Exit(console.CodeFailure, "could not set resolution: %s", console.Red(err))
					}
					console.PInfof(console.PictoCheck, "resolution set to %s", console.White(res))
					return nil
				})
			},
		},
	},
}
