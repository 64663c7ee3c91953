//go:build examples
// +build examples

// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package stc3x_test

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/sensirion-stc/stc3x"
)

// basic example program for the STC31 using this library.
//
// To execute this as a stand-alone program:
//
// Copy the file example_test.go to a new directory.
// rename the file to main.go
// rename the Example() function to main, and the package to main
//
// execute:
//
//	go mod init mydomain.com/stc3x
//	go mod tidy
//	go build -o main main.go
//	./main
func Example() {
	fmt.Println("stc3x example program")
	if _, err := host.Init(); err != nil {
		fmt.Println(err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	dev, err := stc3x.NewI2C(bus, &stc3x.Opts{Addr: stc3x.DefaultAddress, Gas: stc3x.CO2InAirRange25})
	if err != nil {
		log.Fatal(err)
	}

	id, err := dev.ProductIdentifier()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(id.String())

	// Without an SHT4x on the bus, tell the sensor the room conditions.
	if err = dev.SetRelativeHumidity(45 * physic.PercentRH); err != nil {
		fmt.Println(err)
	}
	if err = dev.SetPressure(1013 * 100 * physic.Pascal); err != nil {
		fmt.Println(err)
	}

	m := stc3x.Measurement{}
	if err = dev.Sense(&m); err == nil {
		fmt.Println(m.String())
	} else {
		fmt.Println(err)
	}
	// Output: stc3x example program
	// product: 0x08010301 serial: 0x0f123456789abcde
	// Concentration: 0.04 vol% Temperature: 23.12°C
}
