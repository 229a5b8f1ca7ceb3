package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

// targets maps a board name to the GOOS/GOARCH pair of the thermo binary.
var targets = map[string][2]string{
	"nanopi": {"linux", "arm"},
	"rpi":    {"linux", "arm64"},
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the thermo cli",
		RunE: func(cmd *cobra.Command, args []string) error {
			goos := cmd.Flag("os").Value.String()
			arch := cmd.Flag("arch").Value.String()
			version := cmd.Flag("version").Value.String()
			board := cmd.Flag("board").Value.String()

			if board != "" {
				target, ok := targets[board]
				if !ok {
					return fmt.Errorf("unknown board %q", board)
				}
				goos, arch = target[0], target[1]
			}
			// the hid bridge needs cgo, cross builds go through the build image
			if goos == runtime.GOOS && arch == runtime.GOARCH {
				return build.GoBuild("dist/thermo", "./cmd/thermo", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					EnableCgo:     true,
					Arch:          arch,
					OS:            goos,
				})
			}
			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", goos, arch), []string{"build", "--version", version, "--os", goos, "--arch", arch}, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   "gophertribe/gobuild:1.25-bookworm",
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("board", "", "target board: nanopi or rpi")

	return cmd
}
