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

// Package catalog holds the game catalog data model along with the pure
// identity and reconciliation rules applied to it.
package catalog

import (
	"time"
)

// Source records where an entry came from.
type Source string

const (
	SourceScanned Source = "scanned"
	SourceManual  Source = "manual"
)

// Launcher names produced by the built-in scanners. The launcher field is an
// open set, manual entries may use any value.
const (
	LauncherSteam   = "Steam"
	LauncherEpic    = "Epic Games"
	LauncherGOG     = "GOG Galaxy"
	LauncherUbisoft = "Ubisoft Connect"
	LauncherOrigin  = "Origin"
	LauncherXbox    = "Xbox"
)

// ImageNotFound marks an image lookup that failed. It is retried once the
// entry's image cooldown has passed.
const ImageNotFound = "not_found"

// Entry is one installed or user registered game.
type Entry struct {
	LaunchTime   time.Time `json:"launch_time,omitzero"`
	ImageAttempt Attempt   `json:"image_attempt"`
	InfoAttempt  Attempt   `json:"info_attempt"`
	UniqueID     string    `json:"unique"`
	Name         string    `json:"name"`
	Launcher     string    `json:"launcher"`
	Path         string    `json:"path"`
	Source       Source    `json:"source"`
	Image        string    `json:"image,omitempty"`
	Info         string    `json:"info,omitempty"`
	AppID        string    `json:"appid,omitempty"`
	Args         string    `json:"args,omitempty"`
}

// IsManual reports whether the entry was created or edited by the user.
func (e *Entry) IsManual() bool {
	return e.Source == SourceManual
}

// HasImage reports whether an image reference is set, not counting the
// not_found marker.
func (e *Entry) HasImage() bool {
	return e.Image != "" && e.Image != ImageNotFound
}

// RawEntry is a single game as reported by a launcher scanner, before it has
// been assigned an identity.
type RawEntry struct {
	Name  string
	Path  string
	AppID string
	Args  string
	Image string
}

// ScanBatch is the ordered output of one launcher scanner.
type ScanBatch struct {
	Launcher string
	Entries  []RawEntry
}

// Attempt tracks fetch backoff for one kind of lookup on an entry.
type Attempt struct {
	NextRequest time.Time `json:"next_request,omitzero"`
	Attempted   bool      `json:"attempted"`
}

// Eligible reports whether a new request may be made at now.
func (a Attempt) Eligible(now time.Time) bool {
	return a.NextRequest.IsZero() || !now.Before(a.NextRequest)
}

// Succeeded returns the attempt state after a successful lookup.
func (Attempt) Succeeded() Attempt {
	return Attempt{Attempted: true}
}

// Failed returns the attempt state after a failed lookup, suppressing
// further requests until now+cooldown.
func (Attempt) Failed(now time.Time, cooldown time.Duration) Attempt {
	return Attempt{Attempted: true, NextRequest: now.Add(cooldown)}
}
