package compression_test

import (
	"bytes"
	"compress/zlib"
	"errors"
	"strings"
	"testing"

	"github.com/idelchi/gostego/internal/compression"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"HELLO",
		"This is a secret message that will be compressed, encrypted, and hidden in the image!",
		"ünïcödé ✓ 日本語 🙂",
		strings.Repeat("repetitive ", 1000),
	}

	for _, text := range tests {
		compressed, err := compression.Compress(text)
		if err != nil {
			t.Fatalf("Compress(%q): %v", text, err)
		}

		got, err := compression.Decompress(compressed)
		if err != nil {
			t.Fatalf("Decompress: %v", err)
		}

		if got != text {
			t.Errorf("round trip = %q, want %q", got, text)
		}
	}
}

func TestCompressIsDeterministic(t *testing.T) {
	t.Parallel()

	a, _ := compression.Compress("same text every time")
	b, _ := compression.Compress("same text every time")

	if !bytes.Equal(a, b) {
		t.Errorf("Compress is not deterministic: %x vs %x", a, b)
	}
}

func TestCompressIsStandardZlib(t *testing.T) {
	t.Parallel()

	compressed, err := compression.Compress("interop")
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	reader, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("stdlib zlib rejected the stream: %v", err)
	}

	var out bytes.Buffer
	if _, err := out.ReadFrom(reader); err != nil {
		t.Fatalf("reading: %v", err)
	}

	if out.String() != "interop" {
		t.Errorf("stdlib zlib decoded %q", out.String())
	}
}

func TestDecompressRejects(t *testing.T) {
	t.Parallel()

	valid, err := compression.Compress("checksummed payload")
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	corrupted := bytes.Clone(valid)
	corrupted[len(corrupted)-1] ^= 0xFF

	var latin1 bytes.Buffer

	w := zlib.NewWriter(&latin1)
	_, _ = w.Write([]byte{0xff, 0xfe, 0x41})
	_ = w.Close()

	tests := map[string][]byte{
		"empty":        nil,
		"not zlib":     []byte("plain text"),
		"truncated":    valid[:len(valid)/2],
		"bad checksum": corrupted,
		"invalid utf8": latin1.Bytes(),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if _, err := compression.Decompress(data); !errors.Is(err, compression.ErrDecompression) {
				t.Errorf("Decompress error = %v, want ErrDecompression", err)
			}
		})
	}
}

func TestCompressRejectsOversizedText(t *testing.T) {
	t.Parallel()

	_, err := compression.Compress(strings.Repeat("x", compression.MaxTextSize+1))
	if !errors.Is(err, compression.ErrTextTooLarge) {
		t.Fatalf("Compress error = %v, want ErrTextTooLarge", err)
	}

	if errors.Is(err, compression.ErrDecompression) {
		t.Error("oversized input reported as a decompression failure")
	}
}
