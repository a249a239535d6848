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

package catalog

import (
	"strconv"
)

// KeySet is the set of unique IDs already handed out in some scope.
type KeySet map[string]struct{}

// NewKeySet returns a set holding the IDs of the given entries.
func NewKeySet(entries ...Entry) KeySet {
	ks := make(KeySet, len(entries))
	for i := range entries {
		ks.Add(entries[i].UniqueID)
	}
	return ks
}

func (ks KeySet) Add(key string) {
	ks[key] = struct{}{}
}

func (ks KeySet) Has(key string) bool {
	_, ok := ks[key]
	return ok
}

func (ks KeySet) Remove(key string) {
	delete(ks, key)
}

// GenerateKey derives a unique ID from a launcher and path. The base form is
// "<launcher>_<path>"; when that is taken a numeric suffix starting at 1 is
// appended until an unused key is found. The returned key is not added to
// taken.
func GenerateKey(launcher, path string, taken KeySet) string {
	base := launcher + "_" + path
	if !taken.Has(base) {
		return base
	}
	for n := 1; ; n++ {
		key := base + "_" + strconv.Itoa(n)
		if !taken.Has(key) {
			return key
		}
	}
}

// ClaimKey generates a key and adds it to taken.
func ClaimKey(launcher, path string, taken KeySet) string {
	key := GenerateKey(launcher, path, taken)
	taken.Add(key)
	return key
}
