// Package compression provides the lossless text compression applied before encryption.
// Payloads are zlib streams (RFC 1950), so the checksum also catches most corruption.
package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"
)

// MaxTextSize bounds the size of a decompressed message.
const MaxTextSize = 64 << 20

var (
	// ErrDecompression is wrapped by every failure returned from Decompress.
	ErrDecompression = errors.New("decompression failed")
	// ErrTextTooLarge is returned by Compress for text longer than MaxTextSize bytes.
	ErrTextTooLarge = errors.New("text too large")
)

// Compress returns the zlib stream of the UTF-8 bytes of text.
// The output depends only on the input.
func Compress(text string) ([]byte, error) {
	if len(text) > MaxTextSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTextTooLarge, len(text), MaxTextSize)
	}

	var buf bytes.Buffer

	writer := zlib.NewWriter(&buf)

	if _, err := io.WriteString(writer, text); err != nil {
		return nil, fmt.Errorf("compressing text: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("flushing compressor: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress is the exact inverse of Compress.
func Decompress(data []byte) (string, error) {
	text, err := decompress(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecompression, err)
	}

	return text, nil
}

func decompress(data []byte) (string, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("reading zlib header: %w", err)
	}
	defer reader.Close()

	out, err := io.ReadAll(io.LimitReader(reader, MaxTextSize+1))
	if err != nil {
		return "", fmt.Errorf("inflating: %w", err)
	}

	if len(out) > MaxTextSize {
		return "", fmt.Errorf("message exceeds %d bytes", MaxTextSize)
	}

	if !utf8.Valid(out) {
		return "", errors.New("message is not valid UTF-8")
	}

	return string(out), nil
}
