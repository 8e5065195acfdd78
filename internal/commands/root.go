package commands

import (
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/gostego/internal/config"
	"github.com/idelchi/gostego/internal/logging"
)

// NewRootCommand creates the root command with the flags shared by every subcommand.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	root := cobraext.NewDefaultRootCommand(version)

	root.Use = "gostego [flags] command [flags]"
	root.Short = "Hide encrypted text in images"
	root.Long = `Hide text inside the least-significant bits of lossless images.
Messages are compressed and encrypted with AES-256-CBC before embedding.
Provides commands for key generation, embedding, extraction, capacity and analysis
reports, and an HTTP service.`

	root.PersistentFlags().BoolP("show", "s", false, "Show the configuration and exit")
	root.PersistentFlags().IntP("parallel", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	root.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-error output")
	root.PersistentFlags().Bool("stats", false, "Print a summary when done")
	root.PersistentFlags().Bool("dry", false, "List what would be processed and exit")
	root.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	root.PersistentFlags().StringSliceP("include", "i", nil, "Glob patterns of files to include when walking directories")
	root.PersistentFlags().StringSliceP("exclude", "e", nil, "Glob patterns of files to exclude when walking directories")
	root.PersistentFlags().String("include-from", "", "JSONC file with include patterns")
	root.PersistentFlags().String("exclude-from", "", "JSONC file with exclude patterns")

	root.AddCommand(
		NewGenerateCommand(),
		NewEmbedCommand(cfg),
		NewExtractCommand(cfg),
		NewCapacityCommand(cfg),
		NewAnalyzeCommand(cfg),
		NewCheckCommand(cfg),
		NewServeCommand(cfg),
	)

	return root
}

// keyFlags adds the key material flags used by embed and extract.
func keyFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("key", "k", "", "Encryption key (32 bytes, hex-encoded)")
	cmd.Flags().StringP("key-file", "f", "", "Path to a file holding the hex-encoded key")
	cmd.Flags().StringP("passphrase", "p", "", "Derive the key from a passphrase, '-' to prompt")
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	return logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
}
