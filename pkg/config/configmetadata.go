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

const (
	ProviderGiantBomb = "giantbomb"

	GiantBombBaseURL = "https://www.giantbomb.com"
)

type Metadata struct {
	APIKey   string `toml:"api_key,omitempty"`
	Provider string `toml:"provider" validate:"omitempty,oneof=giantbomb"`
}

func (c *Instance) MetadataProvider() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Metadata.Provider
}

// MetadataAPIKey returns the provider key from config.toml, falling back to
// a matching auth.toml entry. Empty means network lookups are disabled.
func (c *Instance) MetadataAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Metadata.APIKey != "" {
		return c.vals.Metadata.APIKey
	}
	if cred := LookupAuth(c.creds, GiantBombBaseURL+"/api/"); cred != nil {
		if cred.APIKey != "" {
			return cred.APIKey
		}
		return cred.Bearer
	}
	return ""
}
