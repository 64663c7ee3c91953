// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/sensirion-stc/stc3x"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Export readings as Prometheus metrics",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var (
	listenAddr    string
	serveInterval time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "listen", ":9131", "The address to listen on for HTTP requests")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 5*time.Second, "Time between sensor reads, at least 1s")
}

// exporter holds the metrics exposed to Prometheus, labelled with the sensor
// serial number.
type exporter struct {
	serial        string
	concentration *prometheus.GaugeVec
	temperature   *prometheus.GaugeVec
	readErrors    *prometheus.CounterVec
}

func newExporter(reg prometheus.Registerer, serial string) *exporter {
	e := &exporter{
		serial: serial,
		concentration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stc3x_gas_concentration_vol_percent",
			Help: "Gas concentration (units: vol%)",
		}, []string{"serial_number", "gas"}),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stc3x_temperature_celsius",
			Help: "Sensor temperature (units: degrees Celsius)",
		}, []string{"serial_number"}),
		readErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stc3x_read_errors_total",
			Help: "Number of failed sensor reads",
		}, []string{"serial_number"}),
	}
	reg.MustRegister(e.concentration, e.temperature, e.readErrors)
	return e
}

func (e *exporter) observe(m *stc3x.Measurement) {
	e.concentration.WithLabelValues(e.serial, m.Gas.Gas().String()).Set(m.Gas.VolPercent())
	e.temperature.WithLabelValues(e.serial).Set(m.Temperature.Celsius())
}

func (e *exporter) readError() {
	e.readErrors.WithLabelValues(e.serial).Inc()
}

// sensor is the part of *stc3x.Dev the exporter loop uses.
type sensor interface {
	Sense(m *stc3x.Measurement) error
}

// poll reads s every interval until ctx is done.
func (e *exporter) poll(ctx context.Context, s sensor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		e.read(s)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (e *exporter) read(s sensor) {
	m := stc3x.Measurement{}
	if err := s.Sense(&m); err != nil {
		log.WithError(err).WithField("serial_number", e.serial).Error("failed to read from sensor")
		e.readError()
		return
	}
	log.WithField("serial_number", e.serial).Debugf("Received: %s", m.String())
	e.observe(&m)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveInterval < time.Second {
		return errors.Errorf("--interval %s is < 1s", serveInterval)
	}
	dev, bus, err := openDevice()
	if err != nil {
		return err
	}
	defer bus.Close()

	id, err := dev.ProductIdentifier()
	if err != nil {
		return errors.Wrap(err, "reading product identifier")
	}
	serial := fmt.Sprintf("%016x", id.Serial)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewBuildInfoCollector())
	exp := newExporter(reg, serial)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		// Opt into OpenMetrics to support exemplars.
		EnableOpenMetrics: true,
	}))
	srv := &http.Server{Addr: listenAddr, Handler: mux}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	go exp.poll(ctx, dev, serveInterval)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	log.WithFields(log.Fields{"listen": listenAddr, "serial_number": serial}).Info("serving metrics")

	select {
	case err := <-errc:
		return errors.Wrap(err, "serving metrics")
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
