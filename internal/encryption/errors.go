package encryption

import "errors"

var (
	// ErrDecryption is wrapped by every failure returned from Decrypt.
	// A malformed envelope, a wrong key and corrupted ciphertext are indistinguishable.
	ErrDecryption = errors.New("decryption failed")
	// ErrEmptyData is returned when attempting to unpad empty input data.
	ErrEmptyData = errors.New("empty data")
	// ErrInvalidPadding is returned when PKCS7 padding is malformed.
	ErrInvalidPadding = errors.New("invalid padding")
	// ErrInvalidBlockSize is returned when encrypted data length is not aligned with AES block size.
	ErrInvalidBlockSize = errors.New("ciphertext is not a multiple of block size")
	// ErrMissingDelimiter is returned when an envelope does not consist of exactly two parts.
	ErrMissingDelimiter = errors.New("envelope delimiter missing")
	// ErrInvalidKeySize is returned when key material does not have KeySize bytes.
	ErrInvalidKeySize = errors.New("invalid key size")
)
