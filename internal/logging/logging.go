// Package logging builds the structured logger shared by the CLI and the HTTP service.
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Formats lists the accepted output formats.
//
//nolint:gochecknoglobals
var Formats = []string{"text", "json"}

// New returns a logger writing to w at the given level ("debug", "info", ...) and format.
func New(level, format string, w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)

	switch format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return log, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}
