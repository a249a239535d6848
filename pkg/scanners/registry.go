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
	"os"
	"path/filepath"
	"runtime"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/command"
)

// DefaultInstallDir is the conventional location for a launcher's games
// when none is configured. Launcher install lookup is left to config.
func DefaultInstallDir(launcher string) string {
	if runtime.GOOS == "windows" {
		return defaultWindowsDirs[launcher]
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch launcher {
	case catalog.LauncherSteam:
		return filepath.Join(home, ".steam", "steam")
	case catalog.LauncherEpic:
		return filepath.Join(home, "Games", "Heroic", "Manifests")
	case catalog.LauncherGOG:
		return filepath.Join(home, "GOG Games")
	default:
		return ""
	}
}

var defaultWindowsDirs = map[string]string{
	catalog.LauncherSteam:   `C:\Program Files (x86)\Steam`,
	catalog.LauncherEpic:    `C:\ProgramData\Epic\EpicGamesLauncher\Data\Manifests`,
	catalog.LauncherGOG:     `C:\Program Files (x86)\GOG Galaxy\Games`,
	catalog.LauncherUbisoft: `C:\Program Files (x86)\Ubisoft\Ubisoft Game Launcher\games`,
	catalog.LauncherOrigin:  `C:\ProgramData\Origin\LocalContent`,
}

// FromConfig builds the enabled scanners in the fixed launcher order used
// for key assignment. Folder based launchers with no known directory are
// left out; Xbox is only added on Windows.
func FromConfig(cfg *config.Instance, exec command.Executor) []Scanner {
	var out []Scanner
	add := func(launcher string, build func(dir string) Scanner) {
		if !cfg.IsLauncherEnabled(launcher) {
			return
		}
		dir := cfg.LauncherInstallDir(launcher, DefaultInstallDir(launcher))
		if dir == "" {
			return
		}
		out = append(out, build(dir))
	}

	add(catalog.LauncherSteam, func(dir string) Scanner { return NewSteamScanner(dir) })
	add(catalog.LauncherEpic, func(dir string) Scanner { return NewEpicScanner(dir) })
	for _, l := range []string{catalog.LauncherGOG, catalog.LauncherUbisoft, catalog.LauncherOrigin} {
		add(l, func(dir string) Scanner { return NewFolderScanner(l, dir) })
	}

	if cfg.IsLauncherEnabled(catalog.LauncherXbox) {
		d, configured := cfg.LookupLauncherDefaults(catalog.LauncherXbox)
		if runtime.GOOS == "windows" || configured {
			out = append(out, NewXboxScanner(exec, d.Keywords))
		}
	}
	return out
}
