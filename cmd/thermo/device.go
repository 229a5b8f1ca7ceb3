package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/thermo"
	"github.com/mklimuk/thermo/adapter"
	"github.com/mklimuk/thermo/cmd/thermo/console"
	"github.com/mklimuk/thermo/gobot"
	"github.com/mklimuk/thermo/i2c"
	"github.com/mklimuk/thermo/mcp9808"
	"github.com/mklimuk/thermo/sim"
	"github.com/mklimuk/thermo/snsctx"
)

const (
	adapterLinux   = "linux"
	adapterMCP2221 = "mcp2221"
	adapterNanoPi  = "nanopi"
	adapterSim     = "sim"
)

var deviceFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:  "verbose",
		Usage: "enable debug logging and transaction dumps",
	},
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Value:   adapterLinux,
		Usage:   "bus adapter: linux, mcp2221, nanopi or sim",
		EnvVars: []string{"THERMO_ADAPTER"},
	},
	&cli.StringFlag{
		Name:    "bus",
		Aliases: []string{"b"},
		Usage:   "bus name (linux) or number (nanopi); empty selects the default bus",
		EnvVars: []string{"THERMO_BUS"},
	},
	&cli.StringFlag{
		Name:  "address",
		Value: "0x18",
		Usage: "sensor bus address (0x18..0x1f)",
	},
	&cli.StringFlag{
		Name:  "speed",
		Usage: "bus clock for the linux adapter, e.g. 400kHz",
	},
	&cli.IntFlag{
		Name:  "index",
		Value: -1,
		Usage: "MCP2221 bridge index when several are plugged in",
	},
	&cli.Float64Flag{
		Name:  "sim-ambient",
		Value: 25,
		Usage: "ambient temperature of the simulated sensor",
	},
}

func parseAddress(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if v < 0x18 || v > 0x1F {
		return 0, fmt.Errorf("address %#02x outside 0x18..0x1f", v)
	}
	return byte(v), nil
}

// openBus returns the selected transport and a function releasing it.
func openBus(c *cli.Context, address byte) (thermo.RegisterBus, func(), error) {
	switch c.String("adapter") {
	case adapterLinux:
		bus, err := i2c.Open(c.String("bus"))
		if err != nil {
			return nil, nil, err
		}
		if s := c.String("speed"); s != "" {
			var f physic.Frequency
			if err := f.Set(s); err != nil {
				_ = bus.Close()
				return nil, nil, fmt.Errorf("invalid speed %q: %w", s, err)
			}
			if err := bus.SetSpeed(f); err != nil {
				_ = bus.Close()
				return nil, nil, err
			}
		}
		return bus, func() { _ = bus.Close() }, nil
	case adapterMCP2221:
		return adapter.NewMCP2221(adapter.WithIndex(c.Int("index"))), func() {}, nil
	case adapterNanoPi:
		var opts []gobot.Option
		if s := c.String("bus"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid bus number %q: %w", s, err)
			}
			opts = append(opts, gobot.WithBus(n))
		}
		bus, finalize, err := gobot.OpenNanoPi(opts...)
		if err != nil {
			return nil, nil, err
		}
		return bus, func() { _ = finalize() }, nil
	case adapterSim:
		return sim.New(sim.WithAddress(address), sim.WithAmbient(c.Float64("sim-ambient"))), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown adapter %q", c.String("adapter"))
}

// withDevice opens the configured transport, runs do against the sensor and releases the transport.
func withDevice(c *cli.Context, do func(ctx context.Context, dev *mcp9808.Device) error) error {
	address, err := parseAddress(c.String("address"))
	if err != nil {
		return console.Exit(console.CodeUsage, "%s", console.Red(err))
	}
	bus, release, err := openBus(c, address)
	if err != nil {
		return console.Exit(console.CodeFailure, "adapter initialization error: %s", console.Red(err))
	}
	defer release()
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	return do(ctx, mcp9808.New(bus, mcp9808.WithAddress(address)))
}
