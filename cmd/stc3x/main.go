// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// stc3x reads, calibrates and monitors a Sensirion STC31 binary gas
// concentration sensor.
//
// Examples:
//
//	stc3x measure
//	stc3x --gas co2-air-25 monitor --interval 2s --compensate
//	stc3x calibrate --reference 0
//	stc3x serve --listen :9131
//	stc3x record --db readings.db --interval 1m
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("stc3x failed")
		os.Exit(1)
	}
}
