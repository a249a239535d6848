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

import "time"

const (
	DefaultPrefetchWorkers       = 4
	DefaultRequestTimeoutSeconds = 5
	DefaultRetryCooldownSeconds  = 30
)

type Prefetch struct {
	CacheDir              string `toml:"cache_dir,omitempty"`
	Workers               int    `toml:"workers" validate:"min=1,max=32"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds" validate:"min=1,max=120"`
	RetryCooldownSeconds  int    `toml:"retry_cooldown_seconds" validate:"min=1"`
	IncludeInfo           bool   `toml:"include_info"`
}

func (c *Instance) PrefetchWorkers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Prefetch.Workers
}

func (c *Instance) RequestTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Prefetch.RequestTimeoutSeconds) * time.Second
}

func (c *Instance) RetryCooldown() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Prefetch.RetryCooldownSeconds) * time.Second
}

// PrefetchInfo reports whether batch prefetch also resolves metadata text.
func (c *Instance) PrefetchInfo() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Prefetch.IncludeInfo
}

// ImageCacheDir returns the configured cache dir, or fallback when unset.
func (c *Instance) ImageCacheDir(fallback string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Prefetch.CacheDir == "" {
		return fallback
	}
	return c.vals.Prefetch.CacheDir
}
