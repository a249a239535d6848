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
	"net"
	"strconv"
)

const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"

	DefaultAPIPort = 7499
)

type Store struct {
	Backend string `toml:"backend" validate:"oneof=json sqlite"`
}

type API struct {
	Listen         string   `toml:"listen" validate:"omitempty,ip|hostname"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
	Port           int      `toml:"port" validate:"min=1,max=65535"`
}

func (c *Instance) StoreBackend() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Store.Backend
}

// APIAddress is the host:port the presentation API listens on.
func (c *Instance) APIAddress() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return net.JoinHostPort(c.vals.API.Listen, strconv.Itoa(c.vals.API.Port))
}

func (c *Instance) AllowedOrigins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.vals.API.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return append([]string(nil), c.vals.API.AllowedOrigins...)
}
