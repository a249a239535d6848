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

const appManifest = `"AppState"
{
	"appid"		"%s"
	"InstallDir"		"%s"
}
`

func TestSteamScanner(t *testing.T) {
	t.Parallel()

	steamDir := t.TempDir()
	extraLib := t.TempDir()

	writeFile(t, filepath.Join(steamDir, "steamapps", "libraryfolders.vdf"), fmt.Sprintf(`"libraryfolders"
{
	"0"
	{
		"path"		"%s"
	}
	"1"
	{
		"path"		"%s"
	}
}
`, steamDir, extraLib))

	touch(t, filepath.Join(steamDir, "steamapps", "common", "Half-Life", "hl.exe"))
	writeFile(t, filepath.Join(steamDir, "steamapps", "appmanifest_70.acf"),
		fmt.Sprintf(appManifest, "70", "Half-Life"))

	touch(t, filepath.Join(extraLib, "steamapps", "common", "Portal", "portal.exe"))
	touch(t, filepath.Join(extraLib, "steamapps", "common", "Portal", "cover.png"))

	s := NewSteamScanner(steamDir)
	assert.Equal(t, catalog.LauncherSteam, s.ID())

	entries, err := s.Scan(context.Background())
	require.NoError(t, err)

	want := []catalog.RawEntry{
		{
			Name:  "Half-Life",
			Path:  filepath.Join(steamDir, "steamapps", "common", "Half-Life", "hl.exe"),
			AppID: "70",
		},
		{
			Name:  "Portal",
			Path:  filepath.Join(extraLib, "steamapps", "common", "Portal", "portal.exe"),
			Image: filepath.Join(extraLib, "steamapps", "common", "Portal", "cover.png"),
		},
	}
	assert.Equal(t, want, entries)
}

func TestSteamScanner_NoLibraryFile(t *testing.T) {
	t.Parallel()

	steamDir := t.TempDir()
	touch(t, filepath.Join(steamDir, "steamapps", "common", "Celeste", "Celeste.exe"))

	entries, err := NewSteamScanner(steamDir).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Celeste", entries[0].Name)
	assert.Empty(t, entries[0].AppID)
}

func TestSteamScanner_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := NewSteamScanner(filepath.Join(t.TempDir(), "Steam")).Scan(context.Background())
	require.ErrorIs(t, err, ErrInstallDirMissing)
}

func TestNormalizeVDFKeys(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"AppState": map[string]any{"InstallDir": "X", "appid": "1"},
	}
	got := normalizeVDFKeys(in)
	assert.Equal(t, map[string]any{
		"appstate": map[string]any{"installdir": "X", "appid": "1"},
	}, got)
}
