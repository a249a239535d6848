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

// Package scanners discovers installed games for each supported launcher.
package scanners

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/syncutil"
	"github.com/charlievieth/fastwalk"
	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog/log"
)

// ErrInstallDirMissing is returned when a launcher's game directory does
// not exist. The launcher is reported as failed for that scan.
var ErrInstallDirMissing = errors.New("install directory not found")

// imageNames are checked next to a game's executable, in order.
var imageNames = []string{"icon.png", "logo.png", "cover.png"}

type exeCandidate struct {
	path  string
	depth int
}

// FindExecutable returns the best .exe under folder, skipping uninstallers.
// Shallower files win; ties go to the name most similar to the folder name,
// then to the lexically smallest path. Returns "" when nothing matches.
func FindExecutable(folder string) string {
	var (
		mu         syncutil.Mutex
		candidates []exeCandidate
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("skipping unreadable path")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if !strings.HasSuffix(name, ".exe") || strings.HasPrefix(name, "unins") {
			return nil
		}
		rel, relErr := filepath.Rel(folder, path)
		if relErr != nil {
			return nil
		}
		mu.Lock()
		candidates = append(candidates, exeCandidate{
			path:  path,
			depth: strings.Count(filepath.ToSlash(rel), "/"),
		})
		mu.Unlock()
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("folder", folder).Msg("error walking game folder")
	}
	if len(candidates) == 0 {
		return ""
	}

	want := strings.ToLower(filepath.Base(folder))
	score := func(c exeCandidate) float32 {
		base := strings.TrimSuffix(strings.ToLower(filepath.Base(c.path)), ".exe")
		return edlib.JaroWinklerSimilarity(want, base)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.depth != b.depth {
			return a.depth < b.depth
		}
		sa, sb := score(a), score(b)
		if sa != sb {
			return sa > sb
		}
		return a.path < b.path
	})

	return candidates[0].path
}

// FindGameImage returns local artwork shipped next to exe, if any.
func FindGameImage(exe string) string {
	dir := filepath.Dir(exe)
	for _, name := range imageNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// scanFolders treats each subdirectory of root as one game named after the
// folder. Folders without an executable are skipped.
func scanFolders(ctx context.Context, root string) ([]gameFolder, error) {
	dirs, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrInstallDirMissing
	} else if err != nil {
		return nil, err //nolint:wrapcheck // caller adds launcher context
	}

	games := make([]gameFolder, 0, len(dirs))
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err //nolint:wrapcheck // context errors are returned as is
		}
		if !d.IsDir() {
			continue
		}
		folder := filepath.Join(root, d.Name())
		exe := FindExecutable(folder)
		if exe == "" {
			log.Debug().Str("folder", folder).Msg("no executable found in game folder")
			continue
		}
		games = append(games, gameFolder{name: d.Name(), exe: exe})
	}
	return games, nil
}

type gameFolder struct {
	name string
	exe  string
}
