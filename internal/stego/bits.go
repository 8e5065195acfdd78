package stego

// expandBits spreads every byte of data into 8 bits, most significant first.
func expandBits(data []byte) []uint8 {
	bits := make([]uint8, 0, len(data)*8)

	for _, b := range data {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, (b>>shift)&1)
		}
	}

	return bits
}

// collapseBits regroups bits into bytes, most significant first.
// A trailing group shorter than 8 bits is dropped.
func collapseBits(bits []uint8) []byte {
	out := make([]byte, len(bits)/8)

	for i := range out {
		var b byte

		for _, bit := range bits[i*8 : i*8+8] {
			b = b<<1 | bit&1
		}

		out[i] = b
	}

	return out
}

// headerBits renders length as 32 bits, big-endian.
func headerBits(length uint32) []uint8 {
	bits := make([]uint8, HeaderBits)

	for i := range bits {
		bits[i] = uint8(length>>(HeaderBits-1-i)) & 1
	}

	return bits
}
