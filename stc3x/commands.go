// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package stc3x

import (
	"fmt"
	"time"

	"github.com/GermanBionicSystems/sensirion-stc/common"
)

// ChecksumError is returned when a word read from the device fails CRC
// validation.
type ChecksumError = common.ChecksumError

// FormatError is returned when a response has the wrong length.
type FormatError = common.FormatError

// EncodingError is returned when the parameters supplied for a command are
// invalid, either by count or by value.
type EncodingError struct {
	Op     uint16
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("stc3x cmd 0x%04x: %s", e.Op, e.Reason)
}

// Command describes one sensor command. The package defines one value per
// operation; they are never modified.
type Command struct {
	// The 16-bit command word.
	Op uint16
	// Number of parameter words written after the command word.
	Params int
	// Number of words read back. 0 for write-only commands.
	Response int
	// Time the device needs before the response can be read or, for
	// write-only commands, before it accepts the next command.
	Duration time.Duration
}

// The implemented commands.

var cmdSetBinaryGas = Command{Op: 0x3615, Params: 1, Duration: time.Millisecond}
var cmdSetRelativeHumidity = Command{Op: 0x3624, Params: 1, Duration: time.Millisecond}
var cmdSetTemperature = Command{Op: 0x361e, Params: 1, Duration: time.Millisecond}
var cmdSetPressure = Command{Op: 0x362f, Params: 1, Duration: time.Millisecond}

// Measurement takes less than 66ms.
var cmdMeasureGasConcentration = Command{Op: 0x3639, Response: 2, Duration: 70 * time.Millisecond}

// Forced recalibration triggers a measurement internally.
var cmdForcedRecalibration = Command{Op: 0x3661, Params: 1, Duration: 66 * time.Millisecond}

var cmdEnableASC = Command{Op: 0x3fef, Duration: time.Millisecond}
var cmdDisableASC = Command{Op: 0x3f6e, Duration: time.Millisecond}

var cmdPrepareReadState = Command{Op: 0x3752, Duration: time.Millisecond}
var cmdGetSensorState = Command{Op: 0xe133, Response: stateWords}
var cmdSetSensorState = Command{Op: 0xe133, Params: stateWords}
var cmdApplyState = Command{Op: 0x3650, Duration: time.Millisecond}

var cmdSelfTest = Command{Op: 0x365b, Response: 1, Duration: 22 * time.Millisecond}
var cmdEnterSleepMode = Command{Op: 0x3677, Duration: time.Millisecond}

var cmdPrepareProductIdentifier = Command{Op: 0x367c}
var cmdReadProductIdentifier = Command{Op: 0xe102, Response: 6, Duration: 10 * time.Millisecond}

const (
	// The soft reset is an I²C general call: every device on the bus that
	// supports it resets.
	generalCallAddress uint16 = 0x00
	generalCallReset   byte   = 0x06
	resetDuration             = 12 * time.Millisecond
	wakeUpDuration            = 12 * time.Millisecond
)

// Encode returns the bytes written to the device for cmd: the command word
// followed by each parameter word and its CRC.
func Encode(cmd Command, params ...uint16) ([]byte, error) {
	if len(params) != cmd.Params {
		return nil, &EncodingError{Op: cmd.Op, Reason: fmt.Sprintf("expected %d parameter words, got %d", cmd.Params, len(params))}
	}
	w := make([]byte, 2, 2+len(params)*common.WordSize)
	w[0] = byte(cmd.Op >> 8)
	w[1] = byte(cmd.Op)
	return common.AppendWords(w, params...), nil
}

// Decode validates a response and returns its words. Any CRC failure
// rejects the whole response.
func Decode(r []byte, words int) ([]uint16, error) {
	return common.DecodeWords(r, words)
}
