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

package config

import (
	"slices"
	"strings"
)

type Launchers struct {
	Disabled []string           `toml:"disabled,omitempty"`
	Default  []LaunchersDefault `toml:"default,omitempty" validate:"dive"`
}

// LaunchersDefault overrides where a launcher scanner looks for games.
type LaunchersDefault struct {
	Launcher   string   `toml:"launcher" validate:"required"`
	InstallDir string   `toml:"install_dir,omitempty"`
	Keywords   []string `toml:"keywords,omitempty"`
}

func (c *Instance) LookupLauncherDefaults(launcherID string) (LaunchersDefault, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, defaultLauncher := range c.vals.Launchers.Default {
		if strings.EqualFold(defaultLauncher.Launcher, launcherID) {
			return defaultLauncher, true
		}
	}
	return LaunchersDefault{}, false
}

// LauncherInstallDir returns the configured install dir or fallback.
func (c *Instance) LauncherInstallDir(launcherID, fallback string) string {
	if d, ok := c.LookupLauncherDefaults(launcherID); ok && d.InstallDir != "" {
		return d.InstallDir
	}
	return fallback
}

func (c *Instance) IsLauncherEnabled(launcherID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !slices.ContainsFunc(c.vals.Launchers.Disabled, func(s string) bool {
		return strings.EqualFold(s, launcherID)
	})
}
