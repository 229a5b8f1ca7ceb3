package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Exit codes returned by the thermo cli.
const (
	CodeFailure = 1 // the device or the transport failed
	CodeUsage   = 2 // the arguments were rejected before touching the bus
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}
