package commands

import (
	"io"
	"os"
	"testing"
)

func TestPromptPassphraseLeavesRestOfStdin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
		rest  string
	}{
		{"unix newline", "pw\nhello message", "pw", "hello message"},
		{"windows newline", "pw\r\nline one\nline two\n", "pw", "line one\nline two\n"},
		{"no newline", "only-passphrase", "only-passphrase", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, w, err := os.Pipe()
			if err != nil {
				t.Fatal(err)
			}

			defer r.Close()

			if _, err := io.WriteString(w, tt.input); err != nil {
				t.Fatal(err)
			}

			w.Close()

			got, err := promptPassphrase(r, io.Discard)
			if err != nil {
				t.Fatalf("promptPassphrase: %v", err)
			}

			if got != tt.want {
				t.Errorf("passphrase = %q, want %q", got, tt.want)
			}

			rest, err := io.ReadAll(r)
			if err != nil {
				t.Fatal(err)
			}

			if string(rest) != tt.rest {
				t.Errorf("remaining stdin = %q, want %q", rest, tt.rest)
			}
		})
	}
}

func TestPromptPassphraseRejectsEmpty(t *testing.T) {
	t.Parallel()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}

	defer r.Close()

	io.WriteString(w, "\nmessage") //nolint:errcheck
	w.Close()

	if _, err := promptPassphrase(r, io.Discard); err == nil {
		t.Error("empty passphrase line accepted")
	}
}
