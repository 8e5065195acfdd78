package stego

import (
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/idelchi/gostego/internal/compression"
	"github.com/idelchi/gostego/internal/encryption"
)

// Codec embeds and extracts messages. It holds no key and is safe for concurrent use.
type Codec struct {
	random io.Reader
}

// Option configures a Codec.
type Option func(*Codec)

// WithRandom sets the source of initialization vectors. Defaults to crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(c *Codec) {
		c.random = r
	}
}

// New returns a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

//nolint:gochecknoglobals
var defaultCodec = New()

// Embed hides text in a copy of carrier using the default Codec.
func Embed(carrier *Carrier, text string, key *encryption.Key) (*Carrier, error) {
	return defaultCodec.Embed(carrier, text, key)
}

// Extract recovers the text hidden in carrier using the default Codec.
func Extract(carrier *Carrier, key *encryption.Key) (string, error) {
	return defaultCodec.Extract(carrier, key)
}

// Embed hides text in a copy of carrier. The source carrier is never modified.
func (c *Codec) Embed(carrier *Carrier, text string, key *encryption.Key) (*Carrier, error) {
	out, err := c.embed(carrier, text, key)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	return out, nil
}

func (c *Codec) embed(carrier *Carrier, text string, key *encryption.Key) (*Carrier, error) {
	if carrier == nil {
		return nil, errors.New("no carrier")
	}

	if key == nil {
		return nil, errors.New("no key")
	}

	if len(text) > compression.MaxTextSize {
		return nil, fmt.Errorf("%w: message of %d bytes, limit %d", ErrCapacityExceeded, len(text), compression.MaxTextSize)
	}

	compressed, err := compression.Compress(text)
	if err != nil {
		return nil, err
	}

	envelope, err := encryption.Encrypt(key, compressed, c.random)
	if err != nil {
		return nil, err
	}

	payload := expandBits([]byte(envelope))

	available := carrier.Capacity()
	if len(payload) > available || uint64(len(payload)) > math.MaxUint32 {
		return nil, &CapacityError{Required: len(payload), Available: available}
	}

	out := carrier.Clone()

	if err := out.writeBits(0, headerBits(uint32(len(payload)))); err != nil { //nolint:gosec // bounded above
		return nil, err
	}

	if err := out.writeBits(HeaderBits, payload); err != nil {
		return nil, err
	}

	return out, nil
}

// Extract recovers the text hidden in carrier.
func (c *Codec) Extract(carrier *Carrier, key *encryption.Key) (string, error) {
	text, err := c.extract(carrier, key)
	if err != nil {
		return "", fmt.Errorf("extracting: %w", err)
	}

	return text, nil
}

func (c *Codec) extract(carrier *Carrier, key *encryption.Key) (string, error) {
	if carrier == nil {
		return "", errors.New("no carrier")
	}

	if key == nil {
		return "", errors.New("no key")
	}

	available := carrier.Capacity()
	if available < 0 {
		return "", fmt.Errorf("%w: carrier too small for a header", ErrCorruptHeader)
	}

	header, err := carrier.readBits(0, HeaderBits)
	if err != nil {
		return "", err
	}

	var length uint64
	for _, bit := range header {
		length = length<<1 | uint64(bit)
	}

	if length > uint64(available) {
		return "", fmt.Errorf("%w: length %d exceeds capacity %d", ErrCorruptHeader, length, available)
	}

	payload, err := carrier.readBits(HeaderBits, int(length))
	if err != nil {
		return "", err
	}

	envelope := collapseBits(payload)
	if !utf8.Valid(envelope) {
		return "", fmt.Errorf("%w: hidden data is not valid UTF-8", ErrExtraction)
	}

	compressed, err := encryption.Decrypt(key, string(envelope))
	if err != nil {
		return "", err
	}

	return compression.Decompress(compressed)
}

// writeBits stores bits in the lowest bit of consecutive channels starting at position start.
func (c *Carrier) writeBits(start int, bits []uint8) error {
	for i, bit := range bits {
		row, col, channel, err := AddressOf(start+i, c.width, c.height)
		if err != nil {
			return err
		}

		c.Set(row, col, channel, c.At(row, col, channel)&0xfe|bit&1)
	}

	return nil
}

// readBits returns the lowest bit of count consecutive channels starting at position start.
func (c *Carrier) readBits(start, count int) ([]uint8, error) {
	bits := make([]uint8, count)

	for i := range bits {
		row, col, channel, err := AddressOf(start+i, c.width, c.height)
		if err != nil {
			return nil, err
		}

		bits[i] = c.At(row, col, channel) & 1
	}

	return bits, nil
}
