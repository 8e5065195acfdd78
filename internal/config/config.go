// Package config holds the runtime configuration shared by every command.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/gogen/pkg/validator"
)

// Command names the operation a Config was populated for.
type Command string

const (
	Embed    Command = "embed"
	Extract  Command = "extract"
	Capacity Command = "capacity"
	Analyze  Command = "analyze"
	Serve    Command = "serve"
	Check    Command = "check"
)

// Config is populated from flags and GOSTEGO_* environment variables.
type Config struct {
	// Common flags
	Show      bool
	Parallel  int    `validate:"min=1"`
	Quiet     bool
	Stats     bool
	Dry       bool
	LogLevel  string `mapstructure:"log-level"  validate:"oneof=trace debug info warn error"`
	LogFormat string `mapstructure:"log-format" validate:"oneof=text json"`

	// Key material, at most one source
	Key        string `label:"--key"        mask:"filled"             validate:"omitempty,hexadecimal,exclusive=KeyFile,exclusive=Passphrase"` //nolint:lll
	KeyFile    string `label:"--key-file"   mapstructure:"key-file"   validate:"exclusive=Passphrase"`
	Passphrase string `label:"--passphrase" mapstructure:"passphrase" mask:"filled"`

	// Message for embed, at most one source
	Message     string `label:"--message"      validate:"exclusive=MessageFile"`
	MessageFile string `label:"--message-file" mapstructure:"message-file"`

	// Output
	Format             string `validate:"omitempty,oneof=png bmp tif tiff"`
	Suffix             string
	Stdout             bool
	PreserveTimestamps bool `mapstructure:"preserve-timestamps"`

	// File selection
	Include     []string
	Exclude     []string
	IncludeFrom string `mapstructure:"include-from" validate:"omitempty,file"`
	ExcludeFrom string `mapstructure:"exclude-from" validate:"omitempty,file"`

	// Analysis and scanning
	Scan          bool
	VirusTotalKey string        `mapstructure:"virustotal-key" mask:"filled"`
	VirusTotalURL string        `mapstructure:"virustotal-url" validate:"omitempty,url"`
	PollInterval  time.Duration `mapstructure:"poll-interval"`

	// Server
	Listen    string `validate:"omitempty,hostname_port"`
	MaxUpload string `mapstructure:"max-upload"`

	// Set by the command, not by flags
	Command Command  `mapstructure:"-"`
	Files   []string `mapstructure:"-"`
}

// NeedsKey reports whether the command consumes key material from the caller.
func (c *Config) NeedsKey() bool {
	return c.Command == Embed || c.Command == Extract
}

// MaxUploadBytes parses MaxUpload, e.g. "32MiB".
func (c *Config) MaxUploadBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.MaxUpload)
	if err != nil {
		return 0, fmt.Errorf("parsing max upload size: %w", err)
	}

	if n == 0 || n > 1<<40 {
		return 0, fmt.Errorf("max upload size %q out of range", c.MaxUpload)
	}

	return int64(n), nil //nolint:gosec // bounded above
}

// Display reports whether the configuration should be printed instead of run.
func (c *Config) Display() bool {
	return c.Show
}

// Validate checks the struct tags of config and the per-command requirements of c.
// Tag violations are returned as translated messages, e.g. "--key is mutually exclusive".
func (c *Config) Validate(config any) error {
	validate := validator.NewValidator()

	if err := registerExclusive(validate); err != nil {
		return err
	}

	if errs := validate.Validate(config); errs != nil {
		return errors.Join(errs...)
	}

	switch c.Command {
	case Embed, Extract:
		if c.Key == "" && c.KeyFile == "" && c.Passphrase == "" {
			return errors.New("one of --key, --key-file or --passphrase is required")
		}

		if c.Command == Embed && c.Message == "" && c.MessageFile == "" {
			return errors.New("one of --message or --message-file is required")
		}
	case Serve:
		if c.Listen == "" {
			return errors.New("--listen is required")
		}

		if _, err := c.MaxUploadBytes(); err != nil {
			return err
		}
	case Capacity, Analyze, Check:
	}

	if c.Command != Serve && len(c.Files) == 0 {
		return errors.New("no input files given")
	}

	return nil
}
