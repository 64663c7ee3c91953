// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import "fmt"

// WordSize is the number of bytes of one word on the wire: two data bytes,
// most significant first, followed by their CRC.
const WordSize = 3

// ChecksumError is returned when a received word fails CRC validation. The
// whole frame is rejected.
type ChecksumError struct {
	// Index of the failing word within the frame.
	Word int
	// CRC computed over the received data bytes.
	Expected byte
	// CRC byte as received.
	Received byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("invalid crc in word %d: expected 0x%02x received 0x%02x", e.Word, e.Expected, e.Received)
}

// FormatError is returned when a frame has a length that can't hold the
// expected number of words.
type FormatError struct {
	Length int
	Words  int
}

func (e *FormatError) Error() string {
	if e.Length%WordSize != 0 {
		return fmt.Sprintf("invalid frame length %d: not a multiple of %d", e.Length, WordSize)
	}
	return fmt.Sprintf("invalid frame length %d: expected %d words", e.Length, e.Words)
}

// AppendWords appends each word to dst in wire format and returns the
// extended slice.
func AppendWords(dst []byte, words ...uint16) []byte {
	for _, w := range words {
		hi, lo := byte(w>>8), byte(w)
		dst = append(dst, hi, lo, CRC8([]byte{hi, lo}))
	}
	return dst
}

// DecodeWords validates the frame r and returns the n words it contains.
// Decoding stops at the first CRC mismatch and no words are returned.
func DecodeWords(r []byte, n int) ([]uint16, error) {
	if len(r)%WordSize != 0 || len(r) != n*WordSize {
		return nil, &FormatError{Length: len(r), Words: n}
	}
	words := make([]uint16, n)
	for ix := 0; ix < n; ix++ {
		b := r[ix*WordSize : ix*WordSize+WordSize]
		if crc := CRC8(b[:2]); crc != b[2] {
			return nil, &ChecksumError{Word: ix, Expected: crc, Received: b[2]}
		}
		words[ix] = uint16(b[0])<<8 | uint16(b[1])
	}
	return words, nil
}
