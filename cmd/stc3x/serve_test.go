// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/GermanBionicSystems/sensirion-stc/stc3x"
)

type mockSensor struct {
	mock.Mock
}

func (ms *mockSensor) Sense(m *stc3x.Measurement) error {
	args := ms.Called(m)
	if v, ok := args.Get(0).(stc3x.Measurement); ok {
		*m = v
	}
	return args.Error(1)
}

func TestExporterRead(t *testing.T) {
	reg := prometheus.NewRegistry()
	exp := newExporter(reg, "0f123456789abcde")

	reading := stc3x.Measurement{Gas: stc3x.NewGasConcentration(0x5000, stc3x.CO2InN2Range100), Temperature: -5000}
	s := &mockSensor{}
	s.On("Sense", mock.AnythingOfType("*stc3x.Measurement")).Return(reading, nil).Once()
	s.On("Sense", mock.AnythingOfType("*stc3x.Measurement")).Return(nil, errors.New("i2c: NACK")).Once()

	exp.read(s)
	assert.Equal(t, 12.5, testutil.ToFloat64(exp.concentration.WithLabelValues("0f123456789abcde", "CO2 in N2 (100%)")))
	assert.Equal(t, -25.0, testutil.ToFloat64(exp.temperature.WithLabelValues("0f123456789abcde")))
	assert.Equal(t, 0.0, testutil.ToFloat64(exp.readErrors.WithLabelValues("0f123456789abcde")))

	// A failed read keeps the last values and counts the error.
	exp.read(s)
	assert.Equal(t, 12.5, testutil.ToFloat64(exp.concentration.WithLabelValues("0f123456789abcde", "CO2 in N2 (100%)")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exp.readErrors.WithLabelValues("0f123456789abcde")))
	s.AssertExpectations(t)

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}
