// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/GermanBionicSystems/sensirion-stc/compensation"
	"github.com/GermanBionicSystems/sensirion-stc/stc3x"
)

var ioSetGas = i2ctest.IO{Addr: stc3x.DefaultAddress, W: []byte{0x36, 0x15, 0x00, 0x01, 0xb0}}

// execute runs the root command with args against a playback bus loaded
// with ops.
func execute(t *testing.T, ops []i2ctest.IO, args ...string) (string, *i2ctest.Playback, error) {
	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	saved := openBus
	openBus = func(string) (i2c.BusCloser, error) { return pb, nil }
	t.Cleanup(func() { openBus = saved })

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs(append([]string{"--gas", "co2-air-100", "--addr", "0x29"}, args...))
	err := rootCmd.Execute()
	return out.String(), pb, err
}

func TestParseGas(t *testing.T) {
	for name, expected := range gasNames {
		gas, err := parseGas(name)
		require.NoError(t, err)
		assert.Equal(t, expected, gas)
	}
	gas, err := parseGas("CO2-AIR-25")
	require.NoError(t, err)
	assert.Equal(t, stc3x.CO2InAirRange25, gas)

	_, err = parseGas("ch4-air")
	assert.Error(t, err)
}

func TestMeasureCommand(t *testing.T) {
	out, pb, err := execute(t, []i2ctest.IO{
		ioSetGas,
		{Addr: stc3x.DefaultAddress, W: []byte{0x36, 0x39}},
		{Addr: stc3x.DefaultAddress, R: []byte{0x50, 0x00, 0x66, 0x12, 0x10, 0x75}},
	}, "measure")
	require.NoError(t, err)
	assert.Equal(t, "12.50 vol% (CO2 in air (100%)) 23.12°C 73.62°F\n", out)
	assert.Equal(t, len(pb.Ops), pb.Count)
}

func TestSelfTestCommand(t *testing.T) {
	out, _, err := execute(t, []i2ctest.IO{
		ioSetGas,
		{Addr: stc3x.DefaultAddress, W: []byte{0x36, 0x5b}},
		{Addr: stc3x.DefaultAddress, R: []byte{0x00, 0x00, 0x81}},
	}, "selftest")
	require.NoError(t, err)
	assert.Equal(t, "self test passed\n", out)

	out, _, err = execute(t, []i2ctest.IO{
		ioSetGas,
		{Addr: stc3x.DefaultAddress, W: []byte{0x36, 0x5b}},
		{Addr: stc3x.DefaultAddress, R: []byte{0x00, 0x05, 0x74}},
	}, "selftest")
	assert.Error(t, err)
	assert.Equal(t, "self test failed (0x0005)\n", out)
}

func TestInfoCommand(t *testing.T) {
	out, _, err := execute(t, []i2ctest.IO{
		ioSetGas,
		{Addr: stc3x.DefaultAddress, W: []byte{0x36, 0x7c}},
		{Addr: stc3x.DefaultAddress, W: []byte{0xe1, 0x02}},
		{Addr: stc3x.DefaultAddress, R: []byte{0x08, 0x01, 0x87, 0x03, 0x01, 0x9d, 0x0f, 0x12, 0x39, 0x34, 0x56, 0x68, 0x78, 0x9a, 0x6f, 0xbc, 0xde, 0xbf}},
	}, "info")
	require.NoError(t, err)
	assert.Equal(t, "product: 0x08010301 serial: 0x0f123456789abcde\n", out)
}

func TestCalibrateCommand(t *testing.T) {
	_, pb, err := execute(t, []i2ctest.IO{
		ioSetGas,
		{Addr: stc3x.DefaultAddress, W: []byte{0x36, 0x61, 0x3e, 0x14, 0xd9}},
	}, "calibrate", "--reference=-1.5")
	require.NoError(t, err)
	assert.Equal(t, len(pb.Ops), pb.Count)
}

func TestASCCommand(t *testing.T) {
	_, pb, err := execute(t, []i2ctest.IO{
		ioSetGas,
		{Addr: stc3x.DefaultAddress, W: []byte{0x3f, 0xef}},
	}, "asc", "on")
	require.NoError(t, err)
	assert.Equal(t, len(pb.Ops), pb.Count)

	_, pb, err = execute(t, []i2ctest.IO{ioSetGas}, "asc", "maybe")
	assert.Error(t, err)
	assert.Equal(t, 0, pb.Count, "bus used for an invalid argument")
}

func TestResetCommand(t *testing.T) {
	_, pb, err := execute(t, []i2ctest.IO{
		ioSetGas,
		{Addr: 0x00, W: []byte{0x06}},
		ioSetGas,
	}, "reset")
	require.NoError(t, err)
	assert.Equal(t, len(pb.Ops), pb.Count)
}

func TestMonitor(t *testing.T) {
	pb := &i2ctest.Playback{Ops: []i2ctest.IO{
		ioSetGas,
		{Addr: compensation.SHT4xAddress, W: []byte{0xfd}},
		{Addr: compensation.SHT4xAddress, R: []byte{0x66, 0x66, 0x93, 0x80, 0x00, 0xa2}},
		{Addr: stc3x.DefaultAddress, W: []byte{0x36, 0x24, 0x90, 0xa4, 0xf4}},
		{Addr: stc3x.DefaultAddress, W: []byte{0x36, 0x1e, 0x13, 0x88, 0x01}},
	}, DontPanic: true}
	dev, err := stc3x.NewI2C(pb, nil)
	require.NoError(t, err)
	comp := &compensation.Compensator{Source: compensation.NewSHT4x(pb, compensation.SHT4xAddress), Target: dev}

	ch := make(chan stc3x.Measurement, 2)
	ch <- stc3x.Measurement{Gas: stc3x.NewGasConcentration(0x5000, stc3x.CO2InAirRange100), Temperature: 4624}
	close(ch)

	var reported []stc3x.Measurement
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = monitor(ctx, ch, comp, func(m *stc3x.Measurement) { reported = append(reported, *m) })
	assert.Error(t, err, "closed stream")
	require.Len(t, reported, 1)
	assert.Equal(t, 12.5, reported[0].Gas.VolPercent())
	assert.Equal(t, len(pb.Ops), pb.Count)

	// Cancellation ends the loop without error.
	cancel()
	assert.NoError(t, monitor(ctx, make(chan stc3x.Measurement), nil, func(*stc3x.Measurement) {}))
}
