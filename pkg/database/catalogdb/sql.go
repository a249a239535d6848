// Zaparoo Library
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Library.
//
// Zaparoo Library is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Library.  If not, see <http://www.gnu.org/licenses/>.

package catalogdb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/database"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run catalog database migrations: %w", err)
	}
	return nil
}

// unixOrZero stores the zero time as 0 rather than year 1.
func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func sqlLoadEntries(ctx context.Context, db *sql.DB, collection string) ([]catalog.Entry, error) {
	rows, err := db.QueryContext(ctx, `
		select
		UniqueID, Name, Launcher, Path, Source,
		Image, ImageAttempted, ImageNextRequest,
		Info, InfoAttempted, InfoNextRequest,
		AppID, Args, LaunchTime
		from Entries
		where Collection = ?
		order by Position asc;
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s entries: %w", collection, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close rows")
		}
	}()

	entries := make([]catalog.Entry, 0)
	for rows.Next() {
		var (
			e                       catalog.Entry
			source                  string
			imageNext, infoNext, lt int64
		)
		err := rows.Scan(
			&e.UniqueID, &e.Name, &e.Launcher, &e.Path, &source,
			&e.Image, &e.ImageAttempt.Attempted, &imageNext,
			&e.Info, &e.InfoAttempt.Attempted, &infoNext,
			&e.AppID, &e.Args, &lt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s entry: %w", collection, err)
		}
		e.Source = catalog.Source(source)
		e.ImageAttempt.NextRequest = timeOrZero(imageNext)
		e.InfoAttempt.NextRequest = timeOrZero(infoNext)
		e.LaunchTime = timeOrZero(lt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s entries: %w", collection, err)
	}
	return entries, nil
}

func sqlReplaceEntries(ctx context.Context, db *sql.DB, collection string, entries []catalog.Entry) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `delete from Entries where Collection = ?;`, collection); err != nil {
		return rollback(tx, fmt.Errorf("failed to clear %s entries: %w", collection, err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		insert into Entries(
			Collection, Position, UniqueID, Name, Launcher, Path, Source,
			Image, ImageAttempted, ImageNextRequest,
			Info, InfoAttempted, InfoNextRequest,
			AppID, Args, LaunchTime
		) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return rollback(tx, fmt.Errorf("failed to prepare entry insert statement: %w", err))
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	for i := range entries {
		e := &entries[i]
		_, err := stmt.ExecContext(ctx,
			collection, i, e.UniqueID, e.Name, e.Launcher, e.Path, string(e.Source),
			e.Image, e.ImageAttempt.Attempted, unixOrZero(e.ImageAttempt.NextRequest),
			e.Info, e.InfoAttempt.Attempted, unixOrZero(e.InfoAttempt.NextRequest),
			e.AppID, e.Args, unixOrZero(e.LaunchTime),
		)
		if err != nil {
			return rollback(tx, fmt.Errorf("failed to execute entry insert: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s entries: %w", collection, err)
	}
	return nil
}

func sqlLoadScanErrors(ctx context.Context, db *sql.DB) ([]catalog.ScanError, error) {
	rows, err := db.QueryContext(ctx, `
		select RunID, Launcher, Message, Time
		from ScanErrors
		order by DBID asc;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan errors: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close rows")
		}
	}()

	errs := make([]catalog.ScanError, 0)
	for rows.Next() {
		var (
			se catalog.ScanError
			ts int64
		)
		if err := rows.Scan(&se.RunID, &se.Launcher, &se.Message, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan scan error row: %w", err)
		}
		se.Time = timeOrZero(ts)
		errs = append(errs, se)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scan errors: %w", err)
	}
	return errs, nil
}

//goland:noinspection SqlWithoutWhere
func sqlReplaceScanErrors(ctx context.Context, db *sql.DB, errs []catalog.ScanError) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `delete from ScanErrors;`); err != nil {
		return rollback(tx, fmt.Errorf("failed to clear scan errors: %w", err))
	}

	for _, se := range errs {
		_, err := tx.ExecContext(ctx,
			`insert into ScanErrors(RunID, Launcher, Message, Time) values (?, ?, ?, ?);`,
			se.RunID, se.Launcher, se.Message, unixOrZero(se.Time),
		)
		if err != nil {
			return rollback(tx, fmt.Errorf("failed to execute scan error insert: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scan errors: %w", err)
	}
	return nil
}
