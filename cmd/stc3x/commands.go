// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/sensirion-stc/stc3x"
)

var measureCmd = &cobra.Command{
	Use:   "measure",
	Short: "Take a single measurement",
	Args:  cobra.NoArgs,
	RunE:  runMeasure,
}

var selfTestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the on-chip self test",
	Args:  cobra.NoArgs,
	RunE:  runSelfTest,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the product and serial number",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Soft reset the sensor",
	Long: `Soft reset the sensor through the I²C general call address.

Every device on the bus that implements the general call reset is reset too.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Run a forced recalibration",
	Long: `Run a forced recalibration against a known reference concentration.

Expose the sensor to the reference gas and let the readings settle before
running this command.`,
	Args: cobra.NoArgs,
	RunE: runCalibrate,
}

var ascCmd = &cobra.Command{
	Use:       "asc on|off",
	Short:     "Enable or disable automatic self calibration",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runASC,
}

var reference float64

func init() {
	rootCmd.AddCommand(measureCmd, selfTestCmd, infoCmd, resetCmd, calibrateCmd, ascCmd)
	calibrateCmd.Flags().Float64Var(&reference, "reference", 0, "Reference concentration in vol%")
	_ = calibrateCmd.MarkFlagRequired("reference")
}

func runMeasure(cmd *cobra.Command, args []string) error {
	dev, bus, err := openDevice()
	if err != nil {
		return err
	}
	defer bus.Close()

	m := stc3x.Measurement{}
	if err := dev.Sense(&m); err != nil {
		return errors.Wrap(err, "measuring")
	}
	if !m.Gas.InRange() {
		log.WithField("concentration", m.Gas.String()).Warn("concentration outside the range of the configured gas")
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatMeasurement(&m))
	return nil
}

func formatMeasurement(m *stc3x.Measurement) string {
	return fmt.Sprintf("%s (%s) %.2f°C %.2f°F", m.Gas.String(), m.Gas.Gas().String(), m.Temperature.Celsius(), m.Temperature.Fahrenheit())
}

func runSelfTest(cmd *cobra.Command, args []string) error {
	dev, bus, err := openDevice()
	if err != nil {
		return err
	}
	defer bus.Close()

	res, err := dev.SelfTest()
	if err != nil {
		return errors.Wrap(err, "running self test")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "self test %s\n", res)
	if !res.Passed() {
		return errors.Errorf("self test reported 0x%04x", uint16(res))
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	dev, bus, err := openDevice()
	if err != nil {
		return err
	}
	defer bus.Close()

	id, err := dev.ProductIdentifier()
	if err != nil {
		return errors.Wrap(err, "reading product identifier")
	}
	if id.Number != stc3x.ProductSTC31 {
		log.WithField("product", fmt.Sprintf("0x%08x", id.Number)).Warn("not an STC31")
	}
	fmt.Fprintln(cmd.OutOrStdout(), id.String())
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	dev, bus, err := openDevice()
	if err != nil {
		return err
	}
	defer bus.Close()

	if err := dev.Reset(); err != nil {
		return errors.Wrap(err, "resetting")
	}
	log.Info("sensor reset")
	return nil
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	dev, bus, err := openDevice()
	if err != nil {
		return err
	}
	defer bus.Close()

	if err := dev.ForcedRecalibration(reference); err != nil {
		return errors.Wrapf(err, "recalibrating to %.2f vol%%", reference)
	}
	log.WithField("reference", reference).Info("forced recalibration done")
	return nil
}

func runASC(cmd *cobra.Command, args []string) error {
	var enable bool
	switch args[0] {
	case "on":
		enable = true
	case "off":
	default:
		return errors.Errorf("expected on or off, got %q", args[0])
	}
	dev, bus, err := openDevice()
	if err != nil {
		return err
	}
	defer bus.Close()

	if err := dev.SetAutomaticSelfCalibration(enable); err != nil {
		return errors.Wrap(err, "setting automatic self calibration")
	}
	log.WithField("enabled", enable).Info("automatic self calibration")
	return nil
}
