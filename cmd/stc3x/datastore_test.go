// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GermanBionicSystems/sensirion-stc/stc3x"
)

func newMockStore(t *testing.T) (*SqliteDataStore, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "opening mock database")
	t.Cleanup(func() { mockDB.Close() })
	return NewSqliteDataStore(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestNewReading(t *testing.T) {
	m := stc3x.Measurement{Gas: stc3x.NewGasConcentration(0x5000, stc3x.CO2InAirRange25), Temperature: 4624}
	r := NewReading(1580339947, "0f123456789abcde", &m)
	assert.Equal(t, Reading{
		Timestamp:    1580339947,
		SerialNumber: "0f123456789abcde",
		Gas:          "CO2 in air (25%)",
		Ticks:        0x5000,
		VolPercent:   12.5,
		Temperature:  23.12,
	}, r)
}

func TestSqliteDataStore_Write(t *testing.T) {
	store, mock := newMockStore(t)
	row := Reading{
		Timestamp:    1580339947,
		SerialNumber: "0f123456789abcde",
		Gas:          "CO2 in air (100%)",
		Ticks:        0x5000,
		VolPercent:   12.5,
		Temperature:  23.12,
	}
	mock.ExpectExec("INSERT INTO readings").
		WithArgs(row.Timestamp, row.SerialNumber, row.Gas, row.Ticks, row.VolPercent, row.Temperature).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Write(row))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqliteDataStore_WriteError(t *testing.T) {
	store, mock := newMockStore(t)
	errDisk := errors.New("disk I/O error")
	mock.ExpectExec("INSERT INTO readings").WillReturnError(errDisk)

	err := store.Write(Reading{Timestamp: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDisk)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqliteDataStore_ReadSince(t *testing.T) {
	store, mock := newMockStore(t)
	columns := []string{"timestamp", "serial_number", "gas", "concentration_ticks", "vol_percent", "temperature"}
	mock.ExpectQuery("SELECT (.+) FROM readings WHERE timestamp >= (.+)").
		WithArgs(int64(1580339900)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1580339947, "0f123456789abcde", "CO2 in air (100%)", 0x5000, 12.5, 23.12).
			AddRow(1580340007, "0f123456789abcde", "CO2 in air (100%)", 0x4000, 0.0, -25.0))

	rows, err := store.ReadSince(1580339900)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1580339947), rows[0].Timestamp)
	assert.Equal(t, 12.5, rows[0].VolPercent)
	assert.Equal(t, 0x4000, rows[1].Ticks)
	assert.Equal(t, -25.0, rows[1].Temperature)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrations, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	defer down.Close()
}
