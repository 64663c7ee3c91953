// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package compensation

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/sensirion-stc/common"
)

// SHT4xAddress is the default address of an SHT40, SHT41 or SHT45.
const SHT4xAddress uint16 = 0x44

const (
	// Measure at high precision and repeatability.
	sht4xMeasure        byte = 0xfd
	sht4xMeasureTime         = 10 * time.Millisecond
	sht4xResponseWords       = 2
	countDivisor             = float64(65535)

	minTemperature = -40*physic.Kelvin + physic.ZeroCelsius
	maxTemperature = 125*physic.Kelvin + physic.ZeroCelsius

	minRH = 0 * physic.PercentRH
	maxRH = 100 * physic.PercentRH
)

// SHT4x is a Source reading an SHT4x humidity and temperature sensor sharing
// the bus with the gas sensor.
type SHT4x struct {
	d  *i2c.Dev
	mu sync.Mutex
}

// NewSHT4x returns a Source for the SHT4x at addr on bus b. The device is
// not accessed until Sense is called.
func NewSHT4x(b i2c.Bus, addr uint16) *SHT4x {
	return &SHT4x{d: &i2c.Dev{Bus: b, Addr: addr}}
}

// Sense reads temperature and humidity. Pressure is set to zero.
func (s *SHT4x) Sense(e *physic.Env) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Pressure = 0
	if err := s.d.Tx([]byte{sht4xMeasure}, nil); err != nil {
		return err
	}
	time.Sleep(sht4xMeasureTime)
	r := make([]byte, sht4xResponseWords*common.WordSize)
	if err := s.d.Tx(nil, r); err != nil {
		return err
	}
	words, err := common.DecodeWords(r, sht4xResponseWords)
	if err != nil {
		return fmt.Errorf("sht4x: %w", err)
	}
	e.Temperature = countToTemp(words[0])
	e.Humidity = countToHumidity(words[1])
	return nil
}

func (s *SHT4x) String() string {
	return fmt.Sprintf("sht4x: %s", s.d.String())
}

// T=-45+175*(count/countDivisor)
func countToTemp(count uint16) physic.Temperature {
	val := physic.Temperature(float64(physic.Kelvin)*(-45.0+175.0*(float64(count)/countDivisor))) + physic.ZeroCelsius
	if val < minTemperature {
		val = minTemperature
	} else if val > maxTemperature {
		val = maxTemperature
	}
	return val
}

// RH=-6+125*(count/countDivisor)
func countToHumidity(count uint16) physic.RelativeHumidity {
	val := physic.RelativeHumidity((-6.0 + 125.0*(float64(count)/countDivisor)) * float64(physic.PercentRH))
	if val < minRH {
		val = minRH
	} else if val > maxRH {
		val = maxRH
	}
	return val
}

var _ Source = &SHT4x{}
