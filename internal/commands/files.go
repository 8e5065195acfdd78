package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/gostego/internal/config"
	"github.com/idelchi/gostego/internal/logic"
)

func run(cfg *config.Config) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}

		runner := logic.New(cfg,
			logic.WithLogger(log),
			logic.WithStreams(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
		)

		return runner.Run(cmd.Context())
	}
}

// NewEmbedCommand creates the embed subcommand.
func NewEmbedCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "embed [flags] [paths...]",
		Aliases: []string{"hide"},
		Short:   "Hide a message in images",
		Long: `Hide a message in every selected image and write the result next to it as
<name><suffix>.<format>. Only lossless output formats are accepted.`,
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg, config.Embed),
		RunE:    run(cfg),
	}

	keyFlags(cmd)

	cmd.Flags().StringP("message", "m", "", "Message to hide")
	cmd.Flags().String("message-file", "", "File holding the message to hide, '-' for standard input")
	cmd.Flags().String("format", "png", "Output format (png, bmp, tiff)")
	cmd.Flags().String("suffix", ".stego", "Suffix inserted before the output extension")
	cmd.Flags().Bool("preserve-timestamps", false, "Copy the modification time of the source image")

	return cmd
}

// NewExtractCommand creates the extract subcommand.
func NewExtractCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "extract [flags] [paths...]",
		Aliases: []string{"reveal"},
		Short:   "Recover hidden messages from images",
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg, config.Extract),
		RunE:    run(cfg),
	}

	keyFlags(cmd)

	cmd.Flags().Bool("stdout", false, "Print messages instead of writing <name>.txt files")

	return cmd
}

// NewCapacityCommand creates the capacity subcommand.
func NewCapacityCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "capacity [flags] [paths...]",
		Aliases: []string{"cap"},
		Short:   "Report how many bits each image can hide",
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg, config.Capacity),
		RunE:    run(cfg),
	}
}

// NewAnalyzeCommand creates the analyze subcommand.
func NewAnalyzeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyze [flags] [paths...]",
		Short:   "Report image properties relevant to hiding data",
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg, config.Analyze),
		RunE:    run(cfg),
	}

	scanFlags(cmd)

	cmd.Flags().Bool("scan", false, "Also submit each image to VirusTotal")

	return cmd
}

// NewCheckCommand creates the check subcommand.
func NewCheckCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "check [flags] [paths...]",
		Short:   "Validate that include/exclude patterns match files",
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg, config.Check),
		RunE:    run(cfg),
	}
}

func scanFlags(cmd *cobra.Command) {
	cmd.Flags().String("virustotal-key", "", "VirusTotal API key")
	cmd.Flags().String("virustotal-url", "", "VirusTotal API base URL")
	cmd.Flags().Duration("poll-interval", defaultPollInterval, "Wait between VirusTotal analysis polls")
}
