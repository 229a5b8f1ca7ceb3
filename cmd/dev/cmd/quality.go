package cmd

import (
	"fmt"
	"os"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func TestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := test.Test()
			if err != nil {
				return fmt.Errorf("failed to run tests: %w", err)
			}
			return nil
		},
	}
	return cmd
}

func LintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Run linting",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := test.Lint()
			if err != nil {
				return fmt.Errorf("failed to run linting: %w", err)
			}
			return nil
		},
	}
	return cmd
}

// hardwareBusEnv names the bus the hardware tests open; they skip when it is empty.
const hardwareBusEnv = "THERMO_I2C_BUS"

func IntegrationTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integration-test",
		Short: "Run integration tests, including the hardware tests against an attached sensor",
		RunE: func(cmd *cobra.Command, args []string) error {
			bus := cmd.Flag("bus").Value.String()
			if bus != "" {
				if err := os.Setenv(hardwareBusEnv, bus); err != nil {
					return fmt.Errorf("could not set %s: %w", hardwareBusEnv, err)
				}
			}
			err := test.Integ()
			if err != nil {
				return fmt.Errorf("failed to run integration testing: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("bus", os.Getenv(hardwareBusEnv), "i2c bus with an MCP9808 attached, e.g. /dev/i2c-1")
	return cmd
}
