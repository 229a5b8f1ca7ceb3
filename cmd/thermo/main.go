package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/thermo/cmd/thermo/console"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run(os.Args))
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "thermo"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "MCP9808 temperature sensor bench tool"
	app.Flags = deviceFlags
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	// errors are reported here and turned into exit codes by run
	app.ExitErrHandler = func(_ *cli.Context, err error) {
		if err != nil && err.Error() != "" {
			console.Errorf("%s", err)
		}
	}
	app.Commands = cli.Commands{
		&tempCmd,
		&identifyCmd,
		&shutdownCmd,
		&resolutionCmd,
		&alertCmd,
		&boundaryCmd,
		&configCmd,
		&applyCmd,
		&usbCmd,
		&mcp2221Cmd,
	}
	return app
}

func run(args []string) int {
	err := newApp().Run(args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			return exerr.ExitCode()
		}
		return 1
	}
	return 0
}
