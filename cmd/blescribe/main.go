// Blescribe is a utility for writing short text payloads to BLE peripherals.
//
// It scans for nearby Bluetooth Low Energy peripherals, connects to a
// selected device, discovers its services and characteristics, and writes
// a base64-encoded text payload to the first writable characteristic.
//
// Usage:
//
//	blescribe [command] [flags]
//
// Running without arguments launches the interactive wizard.
// See 'blescribe --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kdarrow/blescribe/internal/logging"
	"github.com/kdarrow/blescribe/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "blescribe",
	Short: "BLE Peripheral Text Writer",
	Long: `A standalone utility for writing text payloads to BLE peripherals.

Provides peripheral discovery, an interactive wizard, and direct commands
for connecting to a device and writing a base64-encoded text payload to
its first writable characteristic.

If no command is specified, the interactive wizard will launch automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run wizard when no subcommand provided
		return runWizard(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("blescribe %s (commit: %s)\n", version.Version, version.Commit)
	},
}
