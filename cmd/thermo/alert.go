package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/thermo/adapter"
	"github.com/mklimuk/thermo/cmd/thermo/console"
	"github.com/mklimuk/thermo/mcp9808"
	"github.com/mklimuk/thermo/snsctx"
)

var alertCmd = cli.Command{
	Name:  "alert",
	Usage: "inspect and configure the ALERT output",
	Subcommands: cli.Commands{
		&alertGetCmd,
		&alertSetCmd,
		&alertAckCmd,
		&alertHysteresisCmd,
		&alertPinCmd,
	},
}

var alertGetCmd = cli.Command{
	Name: "get",
	Action: func(c *cli.Context) error {
		return withDevice(c, func(ctx context.Context, dev *mcp9808.Device) error {
			cfg, err := dev.ReadConfig(ctx)
			if err != nil {
				return console.Exit(console.CodeFailure, "could not read configuration: %s", console.Red(err))
			}
			console.PInfof(console.PictoBell, "%s hysteresis %s asserted %s", console.White(cfg.Alert()), cfg.Hysteresis(), console.OnOff(cfg.AlertAsserted()))
			if cfg.Locked() {
				console.PInfof(console.PictoLock, "window lock %s critical lock %s", console.OnOff(cfg.WindowLocked()), console.OnOff(cfg.CriticalLocked()))
			}
			return nil
		})
	},
}

var alertSetCmd = cli.Command{
	Name:  "set",
	Usage: "set the alert control bits",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "enable", Value: true},
		&cli.StringFlag{Name: "output", Value: "comparator", Usage: "comparator or interrupt"},
		&cli.StringFlag{Name: "polarity", Value: "active-low", Usage: "active-low or active-high"},
		&cli.StringFlag{Name: "select", Value: "all", Usage: "all or critical"},
	},
	Action: func(c *cli.Context) error {
		alert, err := parseAlert(c)
		if err != nil {
			return console.Exit(console.CodeUsage, "%s", console.Red(err))
		}
		return withDevice(c, func(ctx context.Context, dev *mcp9808.Device) error {
			err := dev.SetAlertMode(ctx, alert)
			if err != nil {
				return console.Exit(console.CodeFailure, "could not set alert mode: %s", console.Red(err))
			}
			console.PInfof(console.PictoCheck, "alert set to %s", console.White(alert))
			return nil
		})
	},
}

func parseAlert(c *cli.Context) (mcp9808.AlertSettings, error) {
	out, err := mcp9808.ParseAlertOutput(c.String("output"))
	if err != nil {
		return mcp9808.AlertSettings{}, err
	}
	pol, err := mcp9808.ParseAlertPolarity(c.String("polarity"))
	if err != nil {
		return mcp9808.AlertSettings{}, err
	}
	sel, err := mcp9808.ParseAlertSelect(c.String("select"))
	if err != nil {
		return mcp9808.AlertSettings{}, err
	}
	return mcp9808.AlertSettings{Enabled: c.Bool("enable"), Output: out, Polarity: pol, Select: sel}, nil
}

var alertAckCmd = cli.Command{
	Name:  "ack",
	Usage: "clear a latched interrupt",
	Action: func(c *cli.Context) error {
		return withDevice(c, func(ctx context.Context, dev *mcp9808.Device) error {
			err := dev.AcknowledgeAlert(ctx)
			if err != nil {
				return console.Exit(console.CodeFailure, "could not acknowledge alert: %s", console.Red(err))
			}
			console.PInfof(console.PictoCheck, "alert acknowledged")
			return nil
		})
	},
}

var alertHysteresisCmd = cli.Command{
	Name:      "hysteresis",
	ArgsUsage: "0|1.5|3|6",
	Action: func(c *cli.Context) error {
		h, err := mcp9808.ParseHysteresis(c.Args().First())
		if err != nil {
			return console.Exit(console.CodeUsage, "%s", console.Red(err))
		}
		return withDevice(c, func(ctx context.Context, dev *mcp9808.Device) error {
			err := dev.SetHysteresis(ctx, h)
			if err != nil {
				return console.Exit(console.CodeFailure, "could not set hysteresis: %s", console.Red(err))
			}
			console.PInfof(console.PictoCheck, "hysteresis set to %s", console.White(h))
			return nil
		})
	},
}

var alertPinCmd = cli.Command{
	Name:  "pin",
	Usage: "read the ALERT line through a GP input of the MCP2221 bridge",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "gp", Value: 0, Usage: "GP pin wired to ALERT"},
		&cli.BoolFlag{Name: "active-high", Usage: "the alert output is configured active-high"},
	},
	Action: func(c *cli.Context) error {
		if c.String("adapter") != adapterMCP2221 {
			return console.Exit(console.CodeUsage, "alert pin requires the %s adapter", adapterMCP2221)
		}
		bridge := adapter.NewMCP2221(adapter.WithIndex(c.Int("index")))
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		level, err := bridge.AlertLevel(ctx, c.Int("gp"))
		if err != nil {
			return console.Exit(console.CodeFailure, "could not read GP%d: %s", c.Int("gp"), console.Red(err))
		}
		console.PInfof(console.PictoBell, "GP%d level %d, alert %s", c.Int("gp"), boolToInt(level), console.OnOff(level == c.Bool("active-high")))
		return nil
	},
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var boundaryCmd = cli.Command{
	Name:  "boundary",
	Usage: "read or write the alert boundaries",
	Subcommands: cli.Commands{
		{
			Name:      "get",
			ArgsUsage: "[upper|lower|critical]",
			Action: func(c *cli.Context) error {
				boundaries := []mcp9808.Boundary{mcp9808.BoundaryLower, mcp9808.BoundaryUpper, mcp9808.BoundaryCritical}
				if c.Args().Present() {
					b, err := mcp9808.ParseBoundary(c.Args().First())
					if err != nil {
						return console.Exit(console.CodeUsage, "%s", console.Red(err))
					}
					boundaries = []mcp9808.Boundary{b}
				}
				return withDevice(c, func(ctx context.Context, dev *mcp9808.Device) error {
					for _, b := range boundaries {
						v, err := dev.ReadAlertBoundary(ctx, b)
						if err != nil {
							return console.Exit(console.CodeFailure, "could not read %s boundary: %s", b, console.Red(err))
						}
						console.Printf("%-8s %s\n", b, console.White(fmt.Sprintf("%.2f°C", v)))
					}
					return nil
				})
			},
		},
		{
			Name:      "set",
			ArgsUsage: "upper|lower|critical <celsius>",
			Action: func(c *cli.Context) error {
				b, err := mcp9808.ParseBoundary(c.Args().Get(0))
				if err != nil {
					return console.Exit(console.CodeUsage, "%s", console.Red(err))
				}
				v, err := strconv.ParseFloat(c.Args().Get(1), 64)
				if err != nil {
					return console.Exit(console.CodeUsage, "invalid temperature %q", c.Args().Get(1))
				}
				return withDevice(c, func(ctx context.Context, dev *mcp9808.Device) error {
					err := dev.SetAlertBoundary(ctx, b, v)
					if err != nil {
						return console.Exit(console.CodeFailure, "could not set boundary: %s", console.Red(err))
					}
					console.PInfof(console.PictoCheck, "%s boundary set to %s", b, console.White(fmt.Sprintf("%g°C", v)))
					return nil
				})
			},
		},
	},
}
