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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/andygrunwald/vdf"
	"github.com/rs/zerolog/log"
)

// SteamScanner lists games under steamapps/common of every Steam library.
type SteamScanner struct {
	steamDir string
}

// NewSteamScanner takes the Steam install root, the directory holding
// steamapps.
func NewSteamScanner(steamDir string) *SteamScanner {
	return &SteamScanner{steamDir: steamDir}
}

func (*SteamScanner) ID() string {
	return catalog.LauncherSteam
}

func (s *SteamScanner) Scan(ctx context.Context) ([]catalog.RawEntry, error) {
	if _, err := os.Stat(s.steamDir); err != nil {
		return nil, fmt.Errorf("%s: %w", s.steamDir, ErrInstallDirMissing)
	}

	var entries []catalog.RawEntry
	for _, lib := range s.libraries() {
		common := filepath.Join(lib, "steamapps", "common")
		games, err := scanFolders(ctx, common)
		if errors.Is(err, ErrInstallDirMissing) {
			log.Debug().Str("library", lib).Msg("steam library has no common folder")
			continue
		} else if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", common, err)
		}

		appIDs := readAppManifests(filepath.Join(lib, "steamapps"))
		for _, g := range games {
			entries = append(entries, catalog.RawEntry{
				Name:  g.name,
				Path:  g.exe,
				AppID: appIDs[strings.ToLower(g.name)],
				Image: FindGameImage(g.exe),
			})
		}
	}
	return entries, nil
}

// libraries returns the main Steam dir followed by every extra library in
// libraryfolders.vdf, in key order and without duplicates.
func (s *SteamScanner) libraries() []string {
	libs := []string{s.steamDir}
	seen := map[string]struct{}{filepath.Clean(s.steamDir): {}}

	m, err := parseVDF(filepath.Join(s.steamDir, "steamapps", "libraryfolders.vdf"))
	if err != nil {
		log.Debug().Err(err).Msg("no steam library folders")
		return libs
	}

	lfs, ok := m["libraryfolders"].(map[string]any)
	if !ok {
		log.Warn().Msg("libraryfolders is not a map")
		return libs
	}

	keys := make([]string, 0, len(lfs))
	for k := range lfs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var path string
		switch v := lfs[k].(type) {
		case map[string]any:
			path, _ = v["path"].(string)
		case string:
			// pre-2021 format stores the path directly under a numeric key
			path = v
		}
		if path == "" {
			continue
		}
		clean := filepath.Clean(path)
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}
		libs = append(libs, path)
	}
	return libs
}

// readAppManifests maps lower-cased installdir to appid for every
// appmanifest in steamApps.
func readAppManifests(steamApps string) map[string]string {
	ids := make(map[string]string)

	files, err := filepath.Glob(filepath.Join(steamApps, "appmanifest_*.acf"))
	if err != nil {
		return ids
	}

	for _, mf := range files {
		m, err := parseVDF(mf)
		if err != nil {
			log.Warn().Err(err).Str("manifest", mf).Msg("error parsing app manifest")
			continue
		}
		appState, ok := m["appstate"].(map[string]any)
		if !ok {
			continue
		}
		appID, _ := appState["appid"].(string)
		installDir, _ := appState["installdir"].(string)
		if appID == "" || installDir == "" {
			continue
		}
		ids[strings.ToLower(installDir)] = appID
	}
	return ids
}

func parseVDF(path string) (map[string]any, error) {
	//nolint:gosec // reads Steam's own config files
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("path", path).Msg("error closing vdf file")
		}
	}()

	m, err := vdf.NewParser(f).Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return normalizeVDFKeys(m), nil
}

// normalizeVDFKeys lowercases every key; Valve treats them case-insensitively.
func normalizeVDFKeys(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeVDFKeys(nested)
		}
		result[strings.ToLower(k)] = v
	}
	return result
}
