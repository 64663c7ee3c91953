// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print readings logged by record",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var (
	historyDB    string
	historySince time.Duration
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyDB, "db", "stc3x.db", "Path of the SQLite database")
	historyCmd.Flags().DurationVar(&historySince, "since", 24*time.Hour, "Print readings taken within this duration")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historySince <= 0 {
		return errors.Errorf("--since %s must be positive", historySince)
	}
	if err := migrateUp(historyDB); err != nil {
		return err
	}
	db, err := sqlx.Open("sqlite3", historyDB)
	if err != nil {
		return errors.Wrap(err, "opening datastore")
	}
	defer db.Close()
	return printHistory(cmd.OutOrStdout(), NewSqliteDataStore(db), time.Now().Add(-historySince).Unix())
}

// printHistory writes one line per reading taken at or after since.
func printHistory(w io.Writer, store DataStore, since int64) error {
	rows, err := store.ReadSince(since)
	if err != nil {
		return err
	}
	for _, r := range rows {
		ts := time.Unix(r.Timestamp, 0).UTC().Format(time.DateTime)
		if _, err := fmt.Fprintf(w, "%s %s %.2f vol%% (%s) %.2f°C\n", ts, r.SerialNumber, r.VolPercent, r.Gas, r.Temperature); err != nil {
			return err
		}
	}
	return nil
}
