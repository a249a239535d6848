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

// Package database defines the catalog persistence contract. Backends live
// in the jsonstore and catalogdb subpackages.
package database

import (
	"context"
	"errors"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
)

var ErrNullSQL = errors.New("catalog database is not connected")

// Collection names, used in logs and PersistenceError.
const (
	CollectionCatalog    = "catalog"
	CollectionManual     = "manual"
	CollectionScanErrors = "scan_errors"
)

// CatalogStore persists the three library collections. Every Save call
// replaces the whole collection. Loading a collection that was never saved
// returns an empty slice and no error.
type CatalogStore interface {
	LoadCatalog(ctx context.Context) ([]catalog.Entry, error)
	SaveCatalog(ctx context.Context, entries []catalog.Entry) error
	LoadManual(ctx context.Context) ([]catalog.Entry, error)
	SaveManual(ctx context.Context, entries []catalog.Entry) error
	LoadScanErrors(ctx context.Context) ([]catalog.ScanError, error)
	SaveScanErrors(ctx context.Context, errs []catalog.ScanError) error
	Close() error
}

// ManualWatcher is implemented by stores that can report external edits to
// the manual override collection.
type ManualWatcher interface {
	WatchManual(ctx context.Context, onChange func()) error
}
