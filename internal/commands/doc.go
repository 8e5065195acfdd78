// Package commands provides the command-line interface for gostego.
//
// It implements commands for:
//   - key generation
//   - embedding text into images and extracting it again
//   - capacity reports and image analysis
//   - the HTTP service
//
// Flags and GOSTEGO_* environment variables are merged through viper into a config.Config,
// which is validated before any command runs.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/gostego/internal/config"
)

// preRun returns a PreRunE handler that resolves positional args into cfg.Files
// (defaulting to the current directory), merges flags and environment into cfg and validates it.
// With --show the masked configuration is printed and cobraext.ErrExitGracefully returned.
func preRun(cfg *config.Config, command config.Command) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		cfg.Command = command

		if len(args) == 0 && command != config.Serve {
			cfg.Files = []string{"."}
		} else {
			cfg.Files = args
		}

		if err := cobraext.Validate(cfg, cfg); err != nil {
			return err //nolint:wrapcheck
		}

		if cfg.Passphrase == "-" {
			passphrase, err := promptPassphrase(os.Stdin, os.Stderr)
			if err != nil {
				return err
			}

			cfg.Passphrase = passphrase
		}

		return nil
	}
}
