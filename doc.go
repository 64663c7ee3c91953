// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package stc is a container for the Sensirion STC3x gas concentration
// sensor driver and its tooling.
//
// The driver lives in stc3x, the Sensirion word framing shared with other
// Sensirion sensors in common, humidity and temperature compensation in
// compensation, and the command line tool in cmd/stc3x.
package stc
