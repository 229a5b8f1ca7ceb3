package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/thermo/adapter"
	"github.com/mklimuk/thermo/cmd/thermo/console"
	"github.com/mklimuk/thermo/snsctx"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "inspect the MCP2221 USB bridge",
	Subcommands: cli.Commands{
		{
			Name:  "status",
			Usage: "print the I2C engine status",
			Action: func(c *cli.Context) error {
				return bridgeStatus(c, func(ctx context.Context, a *adapter.MCP2221) (any, error) {
					return a.Status(ctx)
				})
			},
		},
		{
			Name:  "release",
			Usage: "cancel the current I2C transfer and free the bus",
			Action: func(c *cli.Context) error {
				return bridgeStatus(c, func(ctx context.Context, a *adapter.MCP2221) (any, error) {
					return a.ReleaseBus(ctx)
				})
			},
		},
		{
			Name:  "gpio",
			Usage: "print the GP pin settings and levels",
			Action: func(c *cli.Context) error {
				return bridgeStatus(c, func(ctx context.Context, a *adapter.MCP2221) (any, error) {
					params, err := a.GetGPIOParameters(ctx)
					if err != nil {
						return nil, err
					}
					values, err := a.ReadGPIO(ctx)
					if err != nil {
						return nil, err
					}
					return map[string]any{"parameters": params, "values": values}, nil
				})
			},
		},
	},
}

func bridgeStatus(c *cli.Context, query func(context.Context, *adapter.MCP2221) (any, error)) error {
	a := adapter.NewMCP2221(adapter.WithIndex(c.Int("index")))
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	status, err := query(ctx, a)
	if err != nil {
		return console.Exit(console.CodeFailure, "adapter communication error: %s", console.Red(err))
	}
	enc := yaml.NewEncoder(os.Stdout)
	defer func() { _ = enc.Close() }()
	err = enc.Encode(status)
	if err != nil {
		return console.Exit(console.CodeFailure, "encoding error: %s", console.Red(err))
	}
	return nil
}
