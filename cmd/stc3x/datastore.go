// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/GermanBionicSystems/sensirion-stc/stc3x"
)

const (
	stmtInsertReading = "INSERT INTO readings (timestamp, serial_number, gas, concentration_ticks," +
		" vol_percent, temperature) VALUES (?, ?, ?, ?, ?, ?);"
	queryReadingsSince = "SELECT timestamp, serial_number, gas, concentration_ticks, vol_percent, temperature" +
		" FROM readings WHERE timestamp >= ? ORDER BY timestamp ASC;"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Reading is one row of the readings table.
type Reading struct {
	Timestamp    int64   `db:"timestamp"`
	SerialNumber string  `db:"serial_number"`
	Gas          string  `db:"gas"`
	Ticks        int     `db:"concentration_ticks"`
	VolPercent   float64 `db:"vol_percent"`
	Temperature  float64 `db:"temperature"`
}

// NewReading returns the row for m taken at timestamp (unix seconds).
func NewReading(timestamp int64, serial string, m *stc3x.Measurement) Reading {
	return Reading{
		Timestamp:    timestamp,
		SerialNumber: serial,
		Gas:          m.Gas.Gas().String(),
		Ticks:        int(m.Gas.Ticks()),
		VolPercent:   m.Gas.VolPercent(),
		Temperature:  m.Temperature.Celsius(),
	}
}

// DataStore persists readings.
type DataStore interface {
	Write(Reading) error
	ReadSince(timestamp int64) ([]Reading, error)
}

// SqliteDataStore is a DataStore using SQLite statement syntax.
type SqliteDataStore struct {
	db *sqlx.DB
}

// NewSqliteDataStore creates a new SqliteDataStore.
func NewSqliteDataStore(db *sqlx.DB) *SqliteDataStore {
	return &SqliteDataStore{db: db}
}

// Write persists the row.
func (sds *SqliteDataStore) Write(r Reading) error {
	_, err := sds.db.Exec(stmtInsertReading,
		r.Timestamp,
		r.SerialNumber,
		r.Gas,
		r.Ticks,
		r.VolPercent,
		r.Temperature,
	)
	if err != nil {
		log.WithError(err).
			WithField("component", "SqliteDataStore").
			WithField("event", "Write").
			Error("failed to insert reading")
		return errors.Wrap(err, "inserting reading")
	}
	return nil
}

// ReadSince returns the readings taken at or after timestamp, oldest first.
func (sds *SqliteDataStore) ReadSince(timestamp int64) ([]Reading, error) {
	var rows []Reading
	if err := sds.db.Select(&rows, queryReadingsSince, timestamp); err != nil {
		return nil, errors.Wrap(err, "selecting readings")
	}
	return rows, nil
}

// migrateUp applies the embedded migrations to the database at dbPath.
func migrateUp(dbPath string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "loading migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+dbPath)
	if err != nil {
		return errors.Wrap(err, "opening database for migration")
	}
	defer m.Close()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
