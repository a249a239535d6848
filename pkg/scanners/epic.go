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

package scanners

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/rs/zerolog/log"
)

const unknownName = "Unknown"

// epicManifest is the subset of an Epic Games Launcher .item file we read.
type epicManifest struct {
	DisplayName      string `json:"DisplayName"`
	InstallLocation  string `json:"InstallLocation"`
	AppName          string `json:"AppName"`
	LaunchExecutable string `json:"LaunchExecutable"`
}

// EpicScanner reads the launcher's .item manifests.
type EpicScanner struct {
	manifestDir string
}

func NewEpicScanner(manifestDir string) *EpicScanner {
	return &EpicScanner{manifestDir: manifestDir}
}

func (*EpicScanner) ID() string {
	return catalog.LauncherEpic
}

func (s *EpicScanner) Scan(ctx context.Context) ([]catalog.RawEntry, error) {
	files, err := os.ReadDir(s.manifestDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.manifestDir, ErrInstallDirMissing)
	} else if err != nil {
		return nil, fmt.Errorf("reading manifests: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		if !f.IsDir() && strings.EqualFold(filepath.Ext(f.Name()), ".item") {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	var entries []catalog.RawEntry
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err //nolint:wrapcheck // context errors are returned as is
		}

		m, err := readEpicManifest(filepath.Join(s.manifestDir, name))
		if err != nil {
			return nil, err
		}

		loc := strings.Trim(m.InstallLocation, `"`)
		if loc == "" {
			continue
		}

		exe := ""
		if m.LaunchExecutable != "" {
			candidate := filepath.Join(loc, filepath.FromSlash(m.LaunchExecutable))
			if _, err := os.Stat(candidate); err == nil {
				exe = candidate
			}
		}
		if exe == "" {
			exe = FindExecutable(loc)
		}
		if exe == "" {
			log.Debug().Str("manifest", name).Msg("no executable for epic game")
			continue
		}

		display := m.DisplayName
		if display == "" {
			display = unknownName
		}
		entries = append(entries, catalog.RawEntry{
			Name:  display,
			Path:  exe,
			AppID: m.AppName,
			Image: FindGameImage(exe),
		})
	}
	return entries, nil
}

func readEpicManifest(path string) (epicManifest, error) {
	var m epicManifest
	data, err := os.ReadFile(path) //nolint:gosec // launcher manifest
	if err != nil {
		return m, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return m, nil
}
