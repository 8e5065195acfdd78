package encryption

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/idelchi/gogen/pkg/key"
)

const (
	// KeySize is the size of the symmetric key in bytes (AES-256).
	KeySize = 32

	passphraseSalt       = "gostego/passphrase/v1"
	passphraseIterations = 600_000
)

// Key is the symmetric key of a single embedding/extraction session.
// It is immutable after creation and never exposes its bytes.
type Key struct {
	material [KeySize]byte
}

// NewKey draws a fresh key from the operating system's CSPRNG.
func NewKey() (*Key, error) {
	return newKeyFrom(rand.Reader)
}

func newKeyFrom(reader io.Reader) (*Key, error) {
	k := &Key{}

	if _, err := io.ReadFull(reader, k.material[:]); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	return k, nil
}

// KeyFromBytes builds a key from caller-supplied material. The slice is copied.
func KeyFromBytes(material []byte) (*Key, error) {
	if len(material) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeySize, len(material), KeySize)
	}

	k := &Key{}
	copy(k.material[:], material)

	return k, nil
}

// KeyFromHex builds a key from a hex encoded string (64 characters).
func KeyFromHex(encoded string) (*Key, error) {
	material, err := key.FromHex(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding hex key: %w", err)
	}

	return KeyFromBytes(material)
}

// KeyFromPassphrase derives a key from a passphrase with PBKDF2-SHA256.
// The salt is fixed, so the same passphrase always yields the same key.
func KeyFromPassphrase(passphrase string) (*Key, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: empty passphrase", ErrInvalidKeySize)
	}

	return KeyFromBytes(pbkdf2.Key([]byte(passphrase), []byte(passphraseSalt), passphraseIterations, KeySize, sha256.New))
}

// Equal reports whether both keys hold the same material, in constant time.
func (k *Key) Equal(other *Key) bool {
	if k == nil || other == nil {
		return k == other
	}

	return subtle.ConstantTimeCompare(k.material[:], other.material[:]) == 1
}
