// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package stc3x

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"
)

// BinaryGas selects the gas mixture the sensor measures, and with it the
// concentration range.
type BinaryGas uint16

const (
	// CO2 in N2, 0 to 100 vol%.
	CO2InN2Range100 BinaryGas = iota
	// CO2 in air, 0 to 100 vol%.
	CO2InAirRange100
	// CO2 in N2, 0 to 25 vol%.
	CO2InN2Range25
	// CO2 in air, 0 to 25 vol%.
	CO2InAirRange25
)

// Concentration output of the STC31. The same linear mapping applies to
// every binary gas; only the usable range differs.
const (
	concentrationOffset = 16384.0
	concentrationScale  = 32768.0
)

type calibration struct {
	name string
	// Ticks at 0 vol%.
	offset float64
	// Ticks per 100 vol%.
	scale float64
	// Upper end of the measurement range in vol%.
	fullScale float64
}

func (g BinaryGas) calibration() (calibration, bool) {
	switch g {
	case CO2InN2Range100:
		return calibration{"CO2 in N2 (100%)", concentrationOffset, concentrationScale, 100}, true
	case CO2InAirRange100:
		return calibration{"CO2 in air (100%)", concentrationOffset, concentrationScale, 100}, true
	case CO2InN2Range25:
		return calibration{"CO2 in N2 (25%)", concentrationOffset, concentrationScale, 25}, true
	case CO2InAirRange25:
		return calibration{"CO2 in air (25%)", concentrationOffset, concentrationScale, 25}, true
	}
	return calibration{}, false
}

// Valid returns true if g is one of the defined binary gases.
func (g BinaryGas) Valid() bool {
	_, ok := g.calibration()
	return ok
}

// Range returns the upper end of the measurement range in vol%.
func (g BinaryGas) Range() float64 {
	c, _ := g.calibration()
	return c.fullScale
}

func (g BinaryGas) String() string {
	if c, ok := g.calibration(); ok {
		return c.name
	}
	return fmt.Sprintf("BinaryGas(%d)", uint16(g))
}

// GasConcentration is a concentration reading as received from the device.
// Derived values are computed from the ticks on demand.
type GasConcentration struct {
	ticks uint16
	gas   BinaryGas
}

// NewGasConcentration returns the concentration for the device output ticks
// measured with gas configured.
func NewGasConcentration(ticks uint16, gas BinaryGas) GasConcentration {
	return GasConcentration{ticks: ticks, gas: gas}
}

// Ticks returns the raw device output.
func (c GasConcentration) Ticks() uint16 {
	return c.ticks
}

// Gas returns the binary gas the reading was taken with.
func (c GasConcentration) Gas() BinaryGas {
	return c.gas
}

// VolPercent returns the concentration in vol%.
func (c GasConcentration) VolPercent() float64 {
	cal, ok := c.gas.calibration()
	if !ok {
		return math.NaN()
	}
	return 100 * (float64(c.ticks) - cal.offset) / cal.scale
}

// InRange reports whether the concentration lies within the specified range
// of the configured gas.
func (c GasConcentration) InRange() bool {
	v := c.VolPercent()
	return v >= 0 && v <= c.gas.Range()
}

func (c GasConcentration) String() string {
	return fmt.Sprintf("%.2f vol%%", c.VolPercent())
}

// Temperature is the temperature reported with a concentration reading, in
// device ticks. One tick is 1/200 °C and 0 ticks is 0 °C.
type Temperature int16

const tickTemperature = 5 * physic.MilliKelvin

// Ticks returns the raw device output.
func (t Temperature) Ticks() int16 {
	return int16(t)
}

// Celsius returns the temperature in °C.
func (t Temperature) Celsius() float64 {
	return float64(t) / 200
}

// Fahrenheit returns the temperature in °F.
func (t Temperature) Fahrenheit() float64 {
	return float64(t)*9/1000 + 32
}

// Physic returns the temperature as a physic.Temperature.
func (t Temperature) Physic() physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(t)*tickTemperature
}

func (t Temperature) String() string {
	return t.Physic().String()
}

// Measurement is one reading of the sensor.
type Measurement struct {
	Gas         GasConcentration
	Temperature Temperature
}

func (m *Measurement) String() string {
	return fmt.Sprintf("Concentration: %s Temperature: %s", m.Gas.String(), m.Temperature.String())
}

// SelfTestResult is the bit field returned by the on-chip self test. Zero
// means no malfunction was detected.
type SelfTestResult uint16

// Passed returns true if no error bit is set.
func (r SelfTestResult) Passed() bool {
	return r == 0
}

func (r SelfTestResult) String() string {
	if r.Passed() {
		return "passed"
	}
	return fmt.Sprintf("failed (0x%04x)", uint16(r))
}

// ProductSTC31 is the product number reported by an STC31.
const ProductSTC31 uint32 = 0x08010301

// ProductID holds the product number and the unique serial number of the
// device.
type ProductID struct {
	Number uint32
	Serial uint64
}

func (p ProductID) String() string {
	return fmt.Sprintf("product: 0x%08x serial: 0x%016x", p.Number, p.Serial)
}

const stateWords = 15

// State is an opaque copy of the sensor's calibration state. Read it with
// Dev.ReadState before sleeping and restore it with Dev.ApplyState when
// automatic self calibration must survive sleep mode.
type State [2 * stateWords]byte

func (s *State) words() []uint16 {
	w := make([]uint16, stateWords)
	for ix := range w {
		w[ix] = uint16(s[ix*2])<<8 | uint16(s[ix*2+1])
	}
	return w
}

func stateFromWords(w []uint16) State {
	var s State
	for ix, val := range w {
		s[ix*2] = byte(val >> 8)
		s[ix*2+1] = byte(val)
	}
	return s
}

// The following convert physical values into the ticks written by the set
// commands.

func humidityToTicks(rh physic.RelativeHumidity) (uint16, error) {
	if rh < 0 || rh > 100*physic.PercentRH {
		return 0, &EncodingError{Op: cmdSetRelativeHumidity.Op, Reason: fmt.Sprintf("relative humidity %s out of range", rh)}
	}
	return uint16(math.Round(float64(rh) / float64(physic.PercentRH) * 65535 / 100)), nil
}

func temperatureToTicks(t physic.Temperature) (uint16, error) {
	ticks := math.Round(t.Celsius() * 200)
	if ticks < math.MinInt16 || ticks > math.MaxInt16 {
		return 0, &EncodingError{Op: cmdSetTemperature.Op, Reason: fmt.Sprintf("temperature %s out of range", t)}
	}
	return uint16(int16(ticks)), nil
}

func pressureToTicks(p physic.Pressure) (uint16, error) {
	mbar := math.Round(float64(p) / float64(100*physic.Pascal))
	if mbar < 0 || mbar > math.MaxUint16 {
		return 0, &EncodingError{Op: cmdSetPressure.Op, Reason: fmt.Sprintf("pressure %s out of range", p)}
	}
	return uint16(mbar), nil
}

func concentrationToTicks(volPercent float64) (uint16, error) {
	ticks := math.Round(volPercent*concentrationScale/100 + concentrationOffset)
	if math.IsNaN(ticks) || ticks < 0 || ticks > math.MaxUint16 {
		return 0, &EncodingError{Op: cmdForcedRecalibration.Op, Reason: fmt.Sprintf("reference concentration %.2f vol%% out of range", volPercent)}
	}
	return uint16(ticks), nil
}
