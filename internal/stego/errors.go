package stego

import (
	"errors"
	"fmt"

	"github.com/idelchi/gostego/internal/compression"
	"github.com/idelchi/gostego/internal/encryption"
)

var (
	// ErrCapacityExceeded reports a payload larger than the carrier. Nothing was mutated.
	ErrCapacityExceeded = errors.New("payload exceeds carrier capacity")
	// ErrOutOfRange reports a bit position outside the carrier. It is only reachable
	// when the capacity check is bypassed.
	ErrOutOfRange = errors.New("bit position out of range")
	// ErrDecompression reports a malformed compressed payload.
	ErrDecompression = compression.ErrDecompression
	// ErrDecryption reports a malformed envelope, a wrong key or corrupted ciphertext.
	ErrDecryption = encryption.ErrDecryption
	// ErrCorruptHeader reports a length header larger than the carrier capacity,
	// as found in tampered or non-stego images.
	ErrCorruptHeader = errors.New("corrupt length header")
	// ErrExtraction reports hidden bytes that do not form a UTF-8 envelope.
	ErrExtraction = errors.New("extraction failed")
)

// CapacityError carries the sizes involved in a failed capacity check.
type CapacityError struct {
	// Required is the payload size in bits.
	Required int
	// Available is the carrier capacity in bits.
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%v: required %d bits, available %d bits", ErrCapacityExceeded, e.Required, e.Available)
}

// Unwrap makes CapacityError match ErrCapacityExceeded.
func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

// Kind classifies codec errors.
type Kind int

const (
	KindUnknown Kind = iota
	KindCapacityExceeded
	KindOutOfRange
	KindDecompression
	KindDecryption
	KindCorruptHeader
	KindExtraction
)

//nolint:gochecknoglobals
var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindCapacityExceeded: "capacity_exceeded",
	KindOutOfRange:       "out_of_range",
	KindDecompression:    "decompression",
	KindDecryption:       "decryption",
	KindCorruptHeader:    "corrupt_header",
	KindExtraction:       "extraction",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return kindNames[KindUnknown]
}

// KindOf returns the kind of a codec error, or KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrCapacityExceeded):
		return KindCapacityExceeded
	case errors.Is(err, ErrOutOfRange):
		return KindOutOfRange
	case errors.Is(err, ErrCorruptHeader):
		return KindCorruptHeader
	case errors.Is(err, ErrExtraction):
		return KindExtraction
	case errors.Is(err, ErrDecryption):
		return KindDecryption
	case errors.Is(err, ErrDecompression):
		return KindDecompression
	default:
		return KindUnknown
	}
}
