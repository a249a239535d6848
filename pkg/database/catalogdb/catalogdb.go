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

// Package catalogdb is the sqlite backed catalog store.
package catalogdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/database"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DBFile           = "catalog.db"
	sqliteConnParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000"
)

type CatalogDB struct {
	sql  *sql.DB
	path string
}

var _ database.CatalogStore = (*CatalogDB)(nil)

// Open opens or creates catalog.db in dataDir and applies migrations.
func Open(dataDir string) (*CatalogDB, error) {
	dbPath := filepath.Join(dataDir, DBFile)
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory for database: %w", err)
	}

	sqlInstance, err := sql.Open("sqlite3", dbPath+sqliteConnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &CatalogDB{sql: sqlInstance, path: dbPath}
	if err := db.MigrateUp(); err != nil {
		_ = sqlInstance.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB wraps an existing connection without running migrations.
func NewWithDB(sqlDB *sql.DB) *CatalogDB {
	return &CatalogDB{sql: sqlDB}
}

func (db *CatalogDB) Path() string {
	return db.path
}

func (db *CatalogDB) MigrateUp() error {
	if db.sql == nil {
		return database.ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *CatalogDB) LoadCatalog(ctx context.Context) ([]catalog.Entry, error) {
	if db.sql == nil {
		return nil, database.ErrNullSQL
	}
	return sqlLoadEntries(ctx, db.sql, database.CollectionCatalog)
}

func (db *CatalogDB) SaveCatalog(ctx context.Context, entries []catalog.Entry) error {
	if db.sql == nil {
		return database.ErrNullSQL
	}
	return sqlReplaceEntries(ctx, db.sql, database.CollectionCatalog, entries)
}

func (db *CatalogDB) LoadManual(ctx context.Context) ([]catalog.Entry, error) {
	if db.sql == nil {
		return nil, database.ErrNullSQL
	}
	return sqlLoadEntries(ctx, db.sql, database.CollectionManual)
}

func (db *CatalogDB) SaveManual(ctx context.Context, entries []catalog.Entry) error {
	if db.sql == nil {
		return database.ErrNullSQL
	}
	return sqlReplaceEntries(ctx, db.sql, database.CollectionManual, entries)
}

func (db *CatalogDB) LoadScanErrors(ctx context.Context) ([]catalog.ScanError, error) {
	if db.sql == nil {
		return nil, database.ErrNullSQL
	}
	return sqlLoadScanErrors(ctx, db.sql)
}

func (db *CatalogDB) SaveScanErrors(ctx context.Context, errs []catalog.ScanError) error {
	if db.sql == nil {
		return database.ErrNullSQL
	}
	return sqlReplaceScanErrors(ctx, db.sql, errs)
}

func (db *CatalogDB) Close() error {
	if db.sql == nil {
		return nil
	}
	if err := db.sql.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.sql = nil
	return nil
}

func rollback(tx *sql.Tx, cause error) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return errors.Join(cause, fmt.Errorf("failed to roll back: %w", err))
	}
	return cause
}
