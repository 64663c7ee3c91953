// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/sensirion-stc/stc3x"
)

var (
	busName  string
	address  uint16
	gasName  string
	logLevel string
	logJSON  bool
)

// Names accepted by --gas.
var gasNames = map[string]stc3x.BinaryGas{
	"co2-n2-100":  stc3x.CO2InN2Range100,
	"co2-air-100": stc3x.CO2InAirRange100,
	"co2-n2-25":   stc3x.CO2InN2Range25,
	"co2-air-25":  stc3x.CO2InAirRange25,
}

var rootCmd = &cobra.Command{
	Use:   "stc3x",
	Short: "Sensirion STC3x gas concentration sensor tool",
	Long: `stc3x talks to a Sensirion STC31 thermal conductivity sensor over I²C.

It can take single measurements, calibrate the sensor, stream readings with
humidity and temperature compensation from an SHT4x, export readings to
Prometheus, and log them to an SQLite database.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&busName, "bus", "", "I²C bus name, empty for the first bus")
	rootCmd.PersistentFlags().Uint16Var(&address, "addr", stc3x.DefaultAddress, "I²C address of the sensor (0x29 - 0x2c)")
	rootCmd.PersistentFlags().StringVar(&gasName, "gas", "co2-air-100", "Binary gas: "+strings.Join(gasChoices(), ", "))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return errors.Wrap(err, "invalid --log-level")
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	if logJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func gasChoices() []string {
	names := make([]string, 0, len(gasNames))
	for name := range gasNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseGas(name string) (stc3x.BinaryGas, error) {
	gas, ok := gasNames[strings.ToLower(name)]
	if !ok {
		return 0, errors.Errorf("unknown gas %q, expected one of %s", name, strings.Join(gasChoices(), ", "))
	}
	return gas, nil
}

// openBus is replaced in tests.
var openBus = func(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	return i2creg.Open(name)
}

// openDevice opens the bus and configures the sensor from the persistent
// flags. The caller closes the bus.
func openDevice() (*stc3x.Dev, i2c.BusCloser, error) {
	gas, err := parseGas(gasName)
	if err != nil {
		return nil, nil, err
	}
	bus, err := openBus(busName)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening I²C bus")
	}
	dev, err := stc3x.NewI2C(bus, &stc3x.Opts{Addr: address, Gas: gas})
	if err != nil {
		_ = bus.Close()
		return nil, nil, errors.Wrap(err, "initializing sensor")
	}
	log.WithFields(log.Fields{"device": dev.String(), "gas": gas.String()}).Debug("sensor ready")
	return dev, bus, nil
}
