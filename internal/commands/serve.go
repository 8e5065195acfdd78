package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/idelchi/gostego/internal/config"
	"github.com/idelchi/gostego/internal/encryption"
	"github.com/idelchi/gostego/internal/scan"
	"github.com/idelchi/gostego/internal/server"
)

const defaultPollInterval = 5 * time.Second

// NewServeCommand creates the serve subcommand. The service holds one key, created at
// start-up and never exported, so carriers it produces can only be read back by the same process.
func NewServeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve [flags]",
		Short:   "Serve embed, extract and analyze over HTTP",
		Args:    cobra.NoArgs,
		PreRunE: preRun(cfg, config.Serve),
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}

			key, err := encryption.NewKey()
			if err != nil {
				return fmt.Errorf("creating session key: %w", err)
			}

			maxUpload, err := cfg.MaxUploadBytes()
			if err != nil {
				return err
			}

			scanner := scan.New(cfg.VirusTotalKey,
				scan.WithBaseURL(cfg.VirusTotalURL),
				scan.WithPolling(cfg.PollInterval, 0),
				scan.WithLogger(log),
			)

			srv := server.New(key,
				server.WithLogger(log),
				server.WithScanner(scanner),
				server.WithMaxUpload(maxUpload),
			)

			return server.ListenAndServe(cmd.Context(), cfg.Listen, srv, log)
		},
	}

	cmd.Flags().StringP("listen", "l", "localhost:5000", "Address to listen on")
	cmd.Flags().String("max-upload", "32MiB", "Maximum request body size")

	scanFlags(cmd)

	return cmd
}
