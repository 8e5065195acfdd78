package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// Delimiter separates the IV from the ciphertext inside an envelope.
const Delimiter = ":"

// Encrypt pads data, encrypts it with AES-256-CBC under a fresh IV read from random
// and returns the textual envelope "base64(iv):base64(ciphertext)".
// A nil random falls back to crypto/rand.
func Encrypt(k *Key, data []byte, random io.Reader) (string, error) {
	if random == nil {
		random = rand.Reader
	}

	block, err := aes.NewCipher(k.material[:])
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	// Generate IV
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(random, iv); err != nil {
		return "", fmt.Errorf("generating IV: %w", err)
	}

	padded := pkcs7Pad(data, aes.BlockSize)
	ciphertext := make([]byte, len(padded))

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(iv) + Delimiter + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Every error it returns wraps ErrDecryption.
func Decrypt(k *Key, envelope string) ([]byte, error) {
	data, err := decrypt(k, envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	return data, nil
}

func decrypt(k *Key, envelope string) ([]byte, error) {
	const parts = 2

	fields := strings.Split(envelope, Delimiter)
	if len(fields) != parts {
		return nil, ErrMissingDelimiter
	}

	iv, err := base64.StdEncoding.DecodeString(fields[0])
	if err != nil {
		return nil, fmt.Errorf("decoding IV: %w", err)
	}

	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("IV must be %d bytes, got %d", aes.BlockSize, len(iv))
	}

	ciphertext, err := base64.StdEncoding.DecodeString(fields[1])
	if err != nil {
		return nil, fmt.Errorf("decoding ciphertext: %w", err)
	}

	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrInvalidBlockSize
	}

	block, err := aes.NewCipher(k.material[:])
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext)
	if err != nil {
		return nil, fmt.Errorf("removing padding: %w", err)
	}

	return unpadded, nil
}
