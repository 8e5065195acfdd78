// Package encryption holds the session key and the envelope cipher used to protect hidden messages.
// Messages are encrypted with AES-256 in CBC mode with PKCS#7 padding and a fresh random IV,
// and rendered as "base64(iv):base64(ciphertext)". The envelope carries no integrity tag.
package encryption
