// Package stego hides text messages in the least-significant bits of RGB pixel channels.
//
// The message is compressed, encrypted into a textual envelope, expanded to bits (most significant
// bit first) and written after a 32-bit big-endian length header:
//
//	bits  0..31       length L of the payload in bits
//	bits 32..32+L-1   envelope bytes
//
// Bit position p addresses channel p%3 of pixel p/3, scanned row-major. Only the lowest bit of a
// targeted channel changes. Carriers must be persisted losslessly for extraction to succeed.
package stego
