// Package imageio decodes carrier images and encodes them with lossless formats only.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	// Register decoders for every accepted upload type.
	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrLossyFormat reports an output format that would destroy the least-significant bits.
	ErrLossyFormat = errors.New("lossy output format")
	// ErrUnknownFormat reports a format name or extension that is not recognised.
	ErrUnknownFormat = errors.New("unknown image format")
)

// Format is an image container format.
type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
	WEBP Format = "webp"
)

// Lossless reports whether the format preserves every channel bit on encode.
func (f Format) Lossless() bool {
	switch f {
	case PNG, BMP, TIFF:
		return true
	default:
		return false
	}
}

// Extension returns the canonical file extension, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	return "image/" + string(f)
}

//nolint:gochecknoglobals
var aliases = map[string]Format{
	"png":  PNG,
	"bmp":  BMP,
	"tif":  TIFF,
	"tiff": TIFF,
	"jpg":  JPEG,
	"jpeg": JPEG,
	"gif":  GIF,
	"webp": WEBP,
}

// Extensions returns every recognised file extension, without the dot.
func Extensions() []string {
	return []string{"png", "jpg", "jpeg", "bmp", "tif", "tiff", "gif", "webp"}
}

// ParseFormat resolves a format name such as "png" or "tif".
func ParseFormat(name string) (Format, error) {
	f, ok := aliases[strings.ToLower(strings.TrimPrefix(name, "."))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}

	return f, nil
}

// FormatFromPath resolves the format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Decode reads an image of any registered format and reports the format name.
func Decode(r io.Reader) (image.Image, Format, error) {
	img, name, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	f, err := ParseFormat(name)
	if err != nil {
		return nil, "", err
	}

	return img, f, nil
}

// DecodeConfig reads only the dimensions and format of an image.
func DecodeConfig(r io.Reader) (image.Config, Format, error) {
	cfg, name, err := image.DecodeConfig(r)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("decoding image header: %w", err)
	}

	f, err := ParseFormat(name)
	if err != nil {
		return image.Config{}, "", err
	}

	return cfg, f, nil
}

// Encode writes img with the given lossless format.
func Encode(w io.Writer, img image.Image, f Format) error {
	if !f.Lossless() {
		return fmt.Errorf("%w: %s cannot carry hidden data", ErrLossyFormat, f)
	}

	var err error

	switch f {
	case PNG:
		encoder := png.Encoder{CompressionLevel: png.BestCompression}
		err = encoder.Encode(w, img)
	case BMP:
		err = bmp.Encode(w, img)
	case TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}

	if err != nil {
		return fmt.Errorf("encoding %s: %w", f, err)
	}

	return nil
}
