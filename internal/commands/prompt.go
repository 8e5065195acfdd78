package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptPassphrase reads a passphrase without echo when in is a terminal,
// or the first line of in otherwise.
func promptPassphrase(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd()) //nolint:gosec // file descriptors fit in int

	var passphrase string

	if term.IsTerminal(fd) {
		fmt.Fprint(prompt, "Passphrase: ")

		data, err := term.ReadPassword(fd)

		fmt.Fprintln(prompt)

		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}

		passphrase = string(data)
	} else {
		line, err := readLine(in)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}

		passphrase = strings.TrimRight(line, "\r")
	}

	if passphrase == "" {
		return "", errors.New("empty passphrase")
	}

	return passphrase, nil
}

// readLine reads up to and excluding the next newline, one byte at a time,
// so the rest of r stays available to later readers (e.g. --message-file -).
func readLine(r io.Reader) (string, error) {
	var (
		line strings.Builder
		b    [1]byte
	)

	for {
		n, err := r.Read(b[:])
		if n == 1 {
			if b[0] == '\n' {
				return line.String(), nil
			}

			line.WriteByte(b[0])
		}

		switch {
		case errors.Is(err, io.EOF):
			return line.String(), nil
		case err != nil:
			return "", err
		}
	}
}
