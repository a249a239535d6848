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
	"fmt"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
)

// Scanner produces raw entries for one launcher. An error means the whole
// launcher failed for this run.
type Scanner interface {
	ID() string
	Scan(ctx context.Context) ([]catalog.RawEntry, error)
}

// FolderScanner handles launchers that install each game into its own
// subdirectory of a common games directory: GOG Galaxy, Ubisoft Connect and
// Origin.
type FolderScanner struct {
	launcher string
	gamesDir string
}

func NewFolderScanner(launcher, gamesDir string) *FolderScanner {
	return &FolderScanner{launcher: launcher, gamesDir: gamesDir}
}

func (s *FolderScanner) ID() string {
	return s.launcher
}

func (s *FolderScanner) Scan(ctx context.Context) ([]catalog.RawEntry, error) {
	games, err := scanFolders(ctx, s.gamesDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.gamesDir, err)
	}

	entries := make([]catalog.RawEntry, 0, len(games))
	for _, g := range games {
		entries = append(entries, catalog.RawEntry{
			Name:  g.name,
			Path:  g.exe,
			Image: FindGameImage(g.exe),
		})
	}
	return entries, nil
}
