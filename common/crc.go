// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains the framing shared by Sensirion I²C sensors: the
// CRC8 checksum and the 16-bit word codec built on it.
package common

const (
	crcPolynomial byte = 0x31
	crcInitial    byte = 0xff
)

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. Polynomial 0x31, initial value 0xff, no reflection and no
// final XOR, as used by Sensirion and TI sensors.
func CRC8(bytes []byte) byte {
	crc := crcInitial
	for _, val := range bytes {
		crc ^= val
		for i := 0; i < 8; i++ {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (crc << 1) ^ crcPolynomial
			}
		}
	}
	return crc
}
