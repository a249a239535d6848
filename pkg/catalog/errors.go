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

package catalog

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrInvalidEntry  = errors.New("invalid entry")
)

// ScanError records a launcher scanner that failed during a scan run. The
// launcher contributes no entries for that run.
type ScanError struct {
	Time     time.Time `json:"time"`
	RunID    string    `json:"run_id"`
	Launcher string    `json:"launcher"`
	Message  string    `json:"message"`
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s scan failed: %s", e.Launcher, e.Message)
}

// FetchKind is the type of lookup a FetchError belongs to.
type FetchKind string

const (
	FetchImage FetchKind = "image"
	FetchInfo  FetchKind = "info"
)

// FetchError wraps a failed image or metadata lookup for one entry.
type FetchError struct {
	Err      error
	UniqueID string
	Kind     FetchKind
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch failed for %s: %v", e.Kind, e.UniqueID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a failed write of one of the stored collections.
type PersistenceError struct {
	Err        error
	Collection string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// LaunchError is returned when a game could not be started.
type LaunchError struct {
	Err      error
	Launcher string
	Path     string
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s game %q: %v", e.Launcher, e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
