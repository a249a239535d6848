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
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func epicItem(display, location, appName, exe string) string {
	return fmt.Sprintf(`{
	"DisplayName": %q,
	"InstallLocation": %q,
	"AppName": %q,
	"LaunchExecutable": %q
}`, display, location, appName, exe)
}

func TestEpicScanner(t *testing.T) {
	t.Parallel()

	manifests := t.TempDir()
	games := t.TempDir()

	fortnite := filepath.Join(games, "Fortnite")
	touch(t, filepath.Join(fortnite, "Bin", "Fortnite.exe"))
	touch(t, filepath.Join(fortnite, "other.exe"))
	writeFile(t, filepath.Join(manifests, "a.item"),
		epicItem("Fortnite", fortnite, "Fortnite", "Bin/Fortnite.exe"))

	nameless := filepath.Join(games, "Nameless")
	touch(t, filepath.Join(nameless, "game.exe"))
	writeFile(t, filepath.Join(manifests, "b.item"), epicItem("", nameless, "abc", ""))

	writeFile(t, filepath.Join(manifests, "c.item"), epicItem("Ghost", "", "ghost", ""))
	writeFile(t, filepath.Join(manifests, "notes.txt"), "not a manifest")

	s := NewEpicScanner(manifests)
	assert.Equal(t, catalog.LauncherEpic, s.ID())

	entries, err := s.Scan(context.Background())
	require.NoError(t, err)

	want := []catalog.RawEntry{
		{Name: "Fortnite", Path: filepath.Join(fortnite, "Bin", "Fortnite.exe"), AppID: "Fortnite"},
		{Name: "Unknown", Path: filepath.Join(nameless, "game.exe"), AppID: "abc"},
	}
	assert.Equal(t, want, entries)
}

func TestEpicScanner_BrokenManifestFailsLauncher(t *testing.T) {
	t.Parallel()

	manifests := t.TempDir()
	writeFile(t, filepath.Join(manifests, "bad.item"), "{not json")

	entries, err := NewEpicScanner(manifests).Scan(context.Background())
	require.Error(t, err)
	assert.Empty(t, entries)
}

func TestEpicScanner_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := NewEpicScanner(filepath.Join(t.TempDir(), "Manifests")).Scan(context.Background())
	require.ErrorIs(t, err, ErrInstallDirMissing)
}
