// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package stc3x provides a driver for the Sensirion STC3x (STC31) thermal
// conductivity gas concentration sensors. The sensor measures the
// concentration of a binary gas mixture, for example CO2 in air, and reports
// the temperature it used for compensation.
//
// The binary gas must be configured before measuring, and again after a
// reset or wake-up. NewI2C, Dev.Reset and Dev.WakeUp take care of this.
//
// For best accuracy feed the sensor the ambient humidity, temperature and
// pressure with Dev.SetRelativeHumidity, Dev.SetTemperature and
// Dev.SetPressure. The compensation package does this from an SHT4x.
//
// Refer to the STC31 datasheet for command timing and calibration details.
package stc3x
