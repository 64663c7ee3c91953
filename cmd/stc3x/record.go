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

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/sensirion-stc/stc3x"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Log readings to an SQLite database",
	Long: `Log readings to an SQLite database until interrupted.

The schema is created or upgraded on start.`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

var (
	dbPath         string
	recordInterval time.Duration
)

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVar(&dbPath, "db", "stc3x.db", "Path of the SQLite database")
	recordCmd.Flags().DurationVar(&recordInterval, "interval", time.Minute, "Time between readings, at least 1s")
}

func runRecord(cmd *cobra.Command, args []string) error {
	if recordInterval < time.Second {
		return errors.Errorf("--interval %s is < 1s", recordInterval)
	}
	if err := migrateUp(dbPath); err != nil {
		return err
	}
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return errors.Wrap(err, "opening datastore")
	}
	defer db.Close()

	dev, bus, err := openDevice()
	if err != nil {
		return err
	}
	defer bus.Close()

	id, err := dev.ProductIdentifier()
	if err != nil {
		return errors.Wrap(err, "reading product identifier")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	r := &recorder{
		sensor: dev,
		store:  NewSqliteDataStore(db),
		serial: fmt.Sprintf("%016x", id.Serial),
		now:    time.Now,
	}
	log.WithFields(log.Fields{"db": dbPath, "interval": recordInterval}).Info("recording")
	r.run(ctx, recordInterval)
	return nil
}

// recorder writes a reading to store every interval.
type recorder struct {
	sensor sensor
	store  DataStore
	serial string
	now    func() time.Time
}

func (r *recorder) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := r.record(); err != nil {
			log.WithError(err).Error("failed to record reading")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *recorder) record() error {
	m := stc3x.Measurement{}
	if err := r.sensor.Sense(&m); err != nil {
		return errors.Wrap(err, "measuring")
	}
	return r.store.Write(NewReading(r.now().Unix(), r.serial, &m))
}
