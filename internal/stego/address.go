package stego

import "fmt"

const (
	// Channels is the number of color channels per pixel used for embedding.
	Channels = 3
	// HeaderBits is the size of the length header.
	HeaderBits = 32
)

// Capacity returns the number of payload bits a width x height carrier can hold.
// The result is negative when the header alone does not fit.
func Capacity(width, height int) int {
	return width*height*Channels - HeaderBits
}

// AddressOf maps a bit position to the pixel row, column and channel holding it.
func AddressOf(pos, width, height int) (row, col, channel int, err error) {
	if width <= 0 || height <= 0 || pos < 0 {
		return 0, 0, 0, fmt.Errorf("%w: position %d in %dx%d", ErrOutOfRange, pos, width, height)
	}

	channel = pos % Channels
	pixel := pos / Channels
	row = pixel / width
	col = pixel % width

	if row >= height {
		return 0, 0, 0, fmt.Errorf("%w: position %d in %dx%d", ErrOutOfRange, pos, width, height)
	}

	return row, col, channel, nil
}
