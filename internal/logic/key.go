package logic

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/idelchi/gostego/internal/config"
	"github.com/idelchi/gostego/internal/encryption"
)

// LoadKey builds the session key from --key, --key-file or --passphrase, in that order.
func LoadKey(cfg *config.Config) (*encryption.Key, error) {
	switch {
	case cfg.Key != "":
		return encryption.KeyFromHex(cfg.Key)
	case cfg.KeyFile != "":
		data, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading key file: %w", err)
		}

		return encryption.KeyFromHex(strings.TrimSpace(string(data)))
	case cfg.Passphrase != "":
		return encryption.KeyFromPassphrase(cfg.Passphrase)
	default:
		return nil, errors.New("no key material given")
	}
}

func (r *Runner) loadKey() error {
	key, err := LoadKey(r.cfg)
	if err != nil {
		return fmt.Errorf("loading key: %w", err)
	}

	r.key = key

	return nil
}

// loadMessage reads the text to embed. A message file of "-" means standard input.
func (r *Runner) loadMessage() error {
	message := r.cfg.Message

	if r.cfg.MessageFile != "" {
		var (
			data []byte
			err  error
		)

		if r.cfg.MessageFile == "-" {
			data, err = io.ReadAll(r.in)
		} else {
			data, err = os.ReadFile(r.cfg.MessageFile)
		}

		if err != nil {
			return fmt.Errorf("reading message: %w", err)
		}

		message = string(data)
	}

	if !utf8.ValidString(message) {
		return errors.New("message is not valid UTF-8 text")
	}

	r.message = message

	return nil
}

func (r *Runner) prepareEmbed() error {
	if err := r.loadKey(); err != nil {
		return err
	}

	return r.loadMessage()
}
