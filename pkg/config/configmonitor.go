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
	"time"
)

const (
	DefaultPollIntervalSeconds = 5
	DefaultLaunchGraceSeconds  = 15
)

type Monitor struct {
	GraceLaunchers      []string `toml:"grace_launchers,omitempty"`
	PollIntervalSeconds int      `toml:"poll_interval_seconds" validate:"min=1,max=300"`
	LaunchGraceSeconds  int      `toml:"launch_grace_seconds" validate:"min=0,max=600"`
}

func (c *Instance) PollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Monitor.PollIntervalSeconds) * time.Second
}

func (c *Instance) LaunchGrace() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Monitor.LaunchGraceSeconds) * time.Second
}

// GraceLaunchers lists launchers whose games start through a client and so
// have no matching process for a while after launch.
func (c *Instance) GraceLaunchers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.vals.Monitor.GraceLaunchers)
}

func (c *Instance) IsGraceLauncher(launcher string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.ContainsFunc(c.vals.Monitor.GraceLaunchers, func(s string) bool {
		return strings.EqualFold(s, launcher)
	})
}
