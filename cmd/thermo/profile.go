package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/thermo/cmd/thermo/console"
	"github.com/mklimuk/thermo/config"
	"github.com/mklimuk/thermo/mcp9808"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "show the sensor configuration",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yaml", Usage: "print as a profile accepted by apply"},
	},
	Action: func(c *cli.Context) error {
		return withDevice(c, func(ctx context.Context, dev *mcp9808.Device) error {
			if c.Bool("yaml") {
				profile, err := config.Capture(ctx, dev)
				if err != nil {
					return console.Exit(console.CodeFailure, "could not read configuration: %s", console.Red(err))
				}
				data, err := profile.Marshal()
				if err != nil {
					return console.Exit(console.CodeFailure, "encoding error: %s", console.Red(err))
				}
				console.Printf("%s", data)
				return nil
			}
			cfg, err := dev.ReadConfig(ctx)
			if err != nil {
				return console.Exit(console.CodeFailure, "could not read configuration: %s", console.Red(err))
			}
			console.Printf("%s %s\n", console.Cyan(dev), cfg)
			return nil
		})
	},
}

var applyCmd = cli.Command{
	Name:  "apply",
	Usage: "apply a YAML device profile",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true},
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		profile, err := config.Load(c.String("file"))
		if err != nil {
			return console.Exit(console.CodeUsage, "%s", console.Red(err))
		}
		settings, err := profile.Settings()
		if err != nil {
			return console.Exit(console.CodeUsage, "%s", console.Red(err))
		}
		// the profile address wins over the flag
		if profile.Address != nil {
			if err := c.Set("address", fmt.Sprintf("%#02x", settings.Address)); err != nil {
				return err
			}
		}
		return withDevice(c, func(ctx context.Context, dev *mcp9808.Device) error {
			if !c.Bool("yes") {
				answer, err := console.NoOrYes(fmt.Sprintf("apply %s to %s?", c.String("file"), dev))
				if err != nil {
					return console.Exit(console.CodeFailure, "prompt error: %s", console.Red(err))
				}
				if answer != console.Yes {
					console.Warnf("aborted")
					return nil
				}
			}
			err := config.Apply(ctx, dev, settings)
			if err != nil {
				return console.Exit(console.CodeFailure, "could not apply profile: %s", console.Red(err))
			}
			console.PInfof(console.PictoCheck, "profile applied to %s", dev)
			return nil
		})
	},
}
