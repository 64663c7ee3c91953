// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package compensation feeds ambient conditions measured by a companion
// sensor into a gas concentration sensor.
//
// The thermal conductivity of a gas mixture depends on humidity, temperature
// and pressure, so the STC3x reports accurate concentrations only when it is
// told the conditions it is measuring in. Sensirion pairs it with an SHT4x
// humidity sensor; any physic.SenseEnv device can be used as the Source.
package compensation

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Source measures the ambient conditions.
type Source interface {
	Sense(e *physic.Env) error
}

// Target accepts compensation values. It is implemented by *stc3x.Dev.
type Target interface {
	SetRelativeHumidity(rh physic.RelativeHumidity) error
	SetTemperature(t physic.Temperature) error
	SetPressure(p physic.Pressure) error
}

// Apply writes the values of e to t. Humidity and temperature are always
// written; 0 %rH is a valid reading in dry gas. Pressure is only written when
// non-zero, since humidity sensors such as the SHT4x report none.
func Apply(t Target, e *physic.Env) error {
	if err := t.SetRelativeHumidity(e.Humidity); err != nil {
		return fmt.Errorf("compensation: humidity: %w", err)
	}
	if err := t.SetTemperature(e.Temperature); err != nil {
		return fmt.Errorf("compensation: temperature: %w", err)
	}
	if e.Pressure != 0 {
		if err := t.SetPressure(e.Pressure); err != nil {
			return fmt.Errorf("compensation: pressure: %w", err)
		}
	}
	return nil
}

// Compensator reads Source and applies the result to Target.
type Compensator struct {
	Source Source
	Target Target
}

// Update reads the source once and applies the reading. The reading is
// returned even if applying it failed.
func (c *Compensator) Update() (physic.Env, error) {
	e := physic.Env{}
	if err := c.Source.Sense(&e); err != nil {
		return physic.Env{}, fmt.Errorf("compensation: source: %w", err)
	}
	return e, Apply(c.Target, &e)
}
