// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/sensirion-stc/compensation"
	"github.com/GermanBionicSystems/sensirion-stc/stc3x"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print readings continuously",
	Long: `Print readings continuously until interrupted.

With --compensate, humidity and temperature are read from an SHT4x on the
same bus before every reading and written to the STC3x.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

var (
	monitorInterval time.Duration
	compensate      bool
	shtAddress      uint16
)

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", time.Second, "Time between readings, at least 1s")
	monitorCmd.Flags().BoolVar(&compensate, "compensate", false, "Compensate with an SHT4x on the same bus")
	monitorCmd.Flags().Uint16Var(&shtAddress, "sht-addr", compensation.SHT4xAddress, "I²C address of the SHT4x")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	dev, bus, err := openDevice()
	if err != nil {
		return err
	}
	defer bus.Close()

	var comp *compensation.Compensator
	if compensate {
		comp = &compensation.Compensator{Source: compensation.NewSHT4x(bus, shtAddress), Target: dev}
		// Compensate the first reading too.
		updateCompensation(comp)
	}

	ch, err := dev.SenseContinuous(monitorInterval)
	if err != nil {
		return errors.Wrap(err, "starting continuous measurement")
	}
	defer dev.Halt()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return monitor(ctx, ch, comp, func(m *stc3x.Measurement) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", time.Now().Format(time.TimeOnly), formatMeasurement(m))
	})
}

// monitor hands every reading of ch to report until ctx is done or ch is
// closed. comp may be nil.
func monitor(ctx context.Context, ch <-chan stc3x.Measurement, comp *compensation.Compensator, report func(*stc3x.Measurement)) error {
	for {
		select {
		case <-ctx.Done():
			log.Debug("monitor interrupted")
			return nil
		case m, ok := <-ch:
			if !ok {
				return errors.New("measurement stream closed")
			}
			report(&m)
			if comp != nil {
				updateCompensation(comp)
			}
		}
	}
}

func updateCompensation(comp *compensation.Compensator) {
	env, err := comp.Update()
	if err != nil {
		log.WithError(err).Warn("compensation update failed")
		return
	}
	log.WithFields(log.Fields{
		"temperature": env.Temperature.String(),
		"humidity":    env.Humidity.String(),
	}).Debug("compensation updated")
}
