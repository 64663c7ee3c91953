// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package stc3x

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/sensirion-stc/common"
)

const (
	// DefaultAddress is the I²C address with both address pins low. The
	// device can be strapped to 0x29 - 0x2c.
	DefaultAddress uint16 = 0x29

	minAddress uint16 = 0x29
	maxAddress uint16 = 0x2c
)

// The datasheet advises against measuring more often than once a second.
var minSampleInterval = time.Second

// Opts holds the configuration applied by NewI2C.
type Opts struct {
	// I²C address, 0x29 - 0x2c.
	Addr uint16
	// Binary gas to measure.
	Gas BinaryGas
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Addr: DefaultAddress,
	Gas:  CO2InAirRange100,
}

// Dev represents an STC3x device.
type Dev struct {
	d  *i2c.Dev
	mu sync.Mutex
	// Configured binary gas. Restored after reset and wake-up.
	gas      BinaryGas
	shutdown chan struct{}
	// Closed when the SenseContinuous goroutine has returned.
	done chan struct{}
}

// NewI2C returns a device on bus b configured with opts, or DefaultOpts if
// opts is nil. The binary gas is written to the device before returning.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Addr < minAddress || opts.Addr > maxAddress {
		return nil, fmt.Errorf("stc3x: invalid address 0x%x", opts.Addr)
	}
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: opts.Addr}}
	if err := d.SetBinaryGas(opts.Gas); err != nil {
		return nil, err
	}
	return d, nil
}

// SetBinaryGas selects the gas mixture to measure. The sensor can only
// report correct concentrations when only the configured gases are present.
func (d *Dev) SetBinaryGas(gas BinaryGas) error {
	if !gas.Valid() {
		return &EncodingError{Op: cmdSetBinaryGas.Op, Reason: fmt.Sprintf("invalid binary gas %d", uint16(gas))}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.sendCommand(cmdSetBinaryGas, uint16(gas)); err != nil {
		return err
	}
	d.gas = gas
	return nil
}

// BinaryGas returns the configured binary gas.
func (d *Dev) BinaryGas() BinaryGas {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gas
}

// SetRelativeHumidity sets the humidity used to compensate the
// concentration. The sensor assumes 0 %rH after reset.
func (d *Dev) SetRelativeHumidity(rh physic.RelativeHumidity) error {
	ticks, err := humidityToTicks(rh)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err = d.sendCommand(cmdSetRelativeHumidity, ticks)
	return err
}

// SetTemperature sets the temperature used to compensate the concentration.
// Until it is called the internal temperature sensor is used. The value is
// also reported back by subsequent measurements.
func (d *Dev) SetTemperature(t physic.Temperature) error {
	ticks, err := temperatureToTicks(t)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err = d.sendCommand(cmdSetTemperature, ticks)
	return err
}

// SetPressure sets the ambient pressure used for density compensation. The
// value is rounded to whole millibars. Compensation is valid from 600 to
// 1200 mbar; the sensor assumes 1013 mbar after reset.
func (d *Dev) SetPressure(p physic.Pressure) error {
	ticks, err := pressureToTicks(p)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err = d.sendCommand(cmdSetPressure, ticks)
	return err
}

// TriggerMeasurement starts a single shot concentration measurement. The
// result can be read with ReadMeasurement after 70ms; before that the device
// NACKs the read.
func (d *Dev) TriggerMeasurement() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(cmdMeasureGasConcentration)
}

// ReadMeasurement reads the result of the last triggered measurement.
func (d *Dev) ReadMeasurement() (Measurement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.read(cmdMeasureGasConcentration)
	if err != nil {
		return Measurement{}, err
	}
	return d.measurement(words), nil
}

// Sense triggers a measurement, waits for it to complete, and reads it.
func (d *Dev) Sense(m *Measurement) error {
	*m = Measurement{}
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.sendCommand(cmdMeasureGasConcentration)
	if err != nil {
		return err
	}
	*m = d.measurement(words)
	return nil
}

func (d *Dev) measurement(words []uint16) Measurement {
	return Measurement{
		Gas:         NewGasConcentration(words[0], d.gas),
		Temperature: Temperature(int16(words[1])),
	}
}

// SenseContinuous measures at the specified interval and writes readings to
// the returned channel. Failed readings are skipped. The interval must be at
// least one second. Call Halt to stop.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan Measurement, error) {
	if interval < minSampleInterval {
		return nil, fmt.Errorf("stc3x: sample interval %s is < %s", interval, minSampleInterval)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil || d.done != nil {
		return nil, errors.New("stc3x: SenseContinuous already running")
	}
	shutdown := make(chan struct{})
	done := make(chan struct{})
	d.shutdown = shutdown
	d.done = done
	ch := make(chan Measurement, 16)
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(ch)
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				m := Measurement{}
				if err := d.Sense(&m); err != nil {
					continue
				}
				select {
				case ch <- m:
				case <-shutdown:
					return
				}
			}
		}
	}()
	return ch, nil
}

// Halt stops a running SenseContinuous and waits for it to exit. The reading
// channel is closed when Halt returns. Implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	done := d.done
	if d.shutdown != nil {
		close(d.shutdown)
		d.shutdown = nil
	}
	d.mu.Unlock()
	if done == nil {
		return nil
	}
	// The goroutine takes d.mu in Sense, so wait without holding it.
	<-done
	d.mu.Lock()
	if d.done == done {
		d.done = nil
	}
	d.mu.Unlock()
	return nil
}

// ForcedRecalibration corrects the sensor output to the reference
// concentration in vol% currently present. The device runs a measurement to
// do this.
func (d *Dev) ForcedRecalibration(volPercent float64) error {
	ticks, err := concentrationToTicks(volPercent)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err = d.sendCommand(cmdForcedRecalibration, ticks)
	return err
}

// SetAutomaticSelfCalibration enables or disables automatic self
// calibration. It is disabled after reset, and is tuned for a measurement
// interval of one second.
func (d *Dev) SetAutomaticSelfCalibration(enable bool) error {
	cmd := cmdDisableASC
	if enable {
		cmd = cmdEnableASC
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.sendCommand(cmd)
	return err
}

// ReadState reads the sensor calibration state.
func (d *Dev) ReadState() (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.sendCommand(cmdPrepareReadState); err != nil {
		return State{}, err
	}
	words, err := d.sendCommand(cmdGetSensorState)
	if err != nil {
		return State{}, err
	}
	return stateFromWords(words), nil
}

// ApplyState writes a state read earlier with ReadState and applies it.
func (d *Dev) ApplyState(s State) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.sendCommand(cmdSetSensorState, s.words()...); err != nil {
		return err
	}
	_, err := d.sendCommand(cmdApplyState)
	return err
}

// SelfTest runs the on-chip self test.
func (d *Dev) SelfTest() (SelfTestResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.sendCommand(cmdSelfTest)
	if err != nil {
		return 0, err
	}
	return SelfTestResult(words[0]), nil
}

// ProductIdentifier returns the product number and serial number of the
// device.
func (d *Dev) ProductIdentifier() (ProductID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.sendCommand(cmdPrepareProductIdentifier); err != nil {
		return ProductID{}, err
	}
	words, err := d.sendCommand(cmdReadProductIdentifier)
	if err != nil {
		return ProductID{}, err
	}
	return ProductID{
		Number: uint32(words[0])<<16 | uint32(words[1]),
		Serial: uint64(words[2])<<48 | uint64(words[3])<<32 | uint64(words[4])<<16 | uint64(words[5]),
	}, nil
}

// Reset issues a soft reset through the I²C general call address and writes
// the configured binary gas again. Other devices on the bus that implement
// the general call reset are reset too.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	gc := &i2c.Dev{Bus: d.d.Bus, Addr: generalCallAddress}
	if err := gc.Tx([]byte{generalCallReset}, nil); err != nil {
		return err
	}
	time.Sleep(resetDuration)
	_, err := d.sendCommand(cmdSetBinaryGas, uint16(d.gas))
	return err
}

// Sleep puts the device into sleep mode. Only valid while idle. Call WakeUp
// before issuing further commands.
func (d *Dev) Sleep() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.sendCommand(cmdEnterSleepMode)
	return err
}

// WakeUp returns the device from sleep mode and writes the configured
// binary gas again.
func (d *Dev) WakeUp() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	// Any address+write wakes the sensor, which does not acknowledge it. The
	// prepare product identifier command is harmless if it was awake. Every
	// error of this write is dropped since a NACK is expected; a bus that is
	// gone fails the set binary gas write below.
	_ = d.write(cmdPrepareProductIdentifier)
	time.Sleep(wakeUpDuration)
	_, err := d.sendCommand(cmdSetBinaryGas, uint16(d.gas))
	return err
}

func (d *Dev) String() string {
	return fmt.Sprintf("stc3x: %s", d.d.String())
}

// write sends the command word and parameters. Transport errors are
// returned as is.
func (d *Dev) write(cmd Command, params ...uint16) error {
	w, err := Encode(cmd, params...)
	if err != nil {
		return err
	}
	return d.d.Tx(w, nil)
}

// read reads and validates the response to cmd.
func (d *Dev) read(cmd Command) ([]uint16, error) {
	r := make([]byte, cmd.Response*common.WordSize)
	if err := d.d.Tx(nil, r); err != nil {
		return nil, err
	}
	words, err := Decode(r, cmd.Response)
	if err != nil {
		return nil, fmt.Errorf("stc3x cmd 0x%04x: %w", cmd.Op, err)
	}
	return words, nil
}

// All commands to the sensor go through this function. It writes the
// command, waits for the command duration, and reads the response if one is
// expected.
func (d *Dev) sendCommand(cmd Command, params ...uint16) ([]uint16, error) {
	if err := d.write(cmd, params...); err != nil {
		return nil, err
	}
	time.Sleep(cmd.Duration)
	if cmd.Response == 0 {
		return nil, nil
	}
	return d.read(cmd)
}

var _ conn.Resource = &Dev{}
