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

// Package jsonstore keeps the catalog collections as indented JSON files in
// a single directory.
package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/database"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	CatalogFile    = "scan_results.json"
	ManualFile     = "manual_games.json"
	ScanErrorsFile = "scan_errors.json"
)

type Store struct {
	fs         afero.Fs
	dir        string
	lastManual []byte
	mu         syncutil.Mutex
}

var _ database.CatalogStore = (*Store)(nil)

// New returns a store rooted at dir on fs. The directory is created on the
// first write.
func New(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) LoadCatalog(_ context.Context) ([]catalog.Entry, error) {
	var entries []catalog.Entry
	if err := s.read(CatalogFile, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) SaveCatalog(_ context.Context, entries []catalog.Entry) error {
	_, err := s.write(CatalogFile, nonNil(entries))
	return err
}

func (s *Store) LoadManual(_ context.Context) ([]catalog.Entry, error) {
	var entries []catalog.Entry
	if err := s.read(ManualFile, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) SaveManual(_ context.Context, entries []catalog.Entry) error {
	data, err := s.write(ManualFile, nonNil(entries))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lastManual = data
	s.mu.Unlock()
	return nil
}

func (s *Store) LoadScanErrors(_ context.Context) ([]catalog.ScanError, error) {
	var errs []catalog.ScanError
	if err := s.read(ScanErrorsFile, &errs); err != nil {
		return nil, err
	}
	return errs, nil
}

func (s *Store) SaveScanErrors(_ context.Context, errs []catalog.ScanError) error {
	if errs == nil {
		errs = []catalog.ScanError{}
	}
	_, err := s.write(ScanErrorsFile, errs)
	return err
}

func (*Store) Close() error {
	return nil
}

func (s *Store) read(name string, v any) error {
	data, err := afero.ReadFile(s.fs, s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// write marshals v and replaces name atomically. The marshalled bytes are
// returned so callers can recognise their own writes.
func (s *Store) write(name string, v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	if err := s.fs.MkdirAll(s.dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, s.dir, "."+name+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = s.fs.Rename(tmpPath, s.path(name))
	}
	if err != nil {
		if removeErr := s.fs.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			log.Warn().Err(removeErr).Str("path", tmpPath).Msg("failed to remove temp file")
		}
		return nil, fmt.Errorf("failed to write %s: %w", name, err)
	}

	return data, nil
}

func nonNil(entries []catalog.Entry) []catalog.Entry {
	if entries == nil {
		return []catalog.Entry{}
	}
	return entries
}
