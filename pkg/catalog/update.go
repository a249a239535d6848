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
	"fmt"
	"strings"
	"time"
)

// Update is a change to a single entry produced outside the catalog owner,
// such as by a prefetch worker. Nil fields are left untouched.
type Update struct {
	Image        *string
	ImageAttempt *Attempt
	Info         *string
	InfoAttempt  *Attempt
	LaunchTime   *time.Time
	UniqueID     string
}

// Apply writes the set fields of u onto e.
func (u *Update) Apply(e *Entry) {
	if u.Image != nil {
		e.Image = *u.Image
	}
	if u.ImageAttempt != nil {
		e.ImageAttempt = *u.ImageAttempt
	}
	if u.Info != nil {
		e.Info = *u.Info
	}
	if u.InfoAttempt != nil {
		e.InfoAttempt = *u.InfoAttempt
	}
	if u.LaunchTime != nil {
		e.LaunchTime = *u.LaunchTime
	}
}

// ImageResolved returns an update setting a resolved image.
func ImageResolved(uniqueID, image string) Update {
	a := Attempt{}.Succeeded()
	return Update{UniqueID: uniqueID, Image: &image, ImageAttempt: &a}
}

// ImageFailed returns an update marking an image lookup as failed.
func ImageFailed(uniqueID string, now time.Time, cooldown time.Duration) Update {
	img := ImageNotFound
	a := Attempt{}.Failed(now, cooldown)
	return Update{UniqueID: uniqueID, Image: &img, ImageAttempt: &a}
}

// InfoResolved returns an update setting metadata text.
func InfoResolved(uniqueID, info string) Update {
	a := Attempt{}.Succeeded()
	return Update{UniqueID: uniqueID, Info: &info, InfoAttempt: &a}
}

// InfoFailed returns an update marking a metadata lookup as failed. The
// existing text is kept.
func InfoFailed(uniqueID string, now time.Time, cooldown time.Duration) Update {
	a := Attempt{}.Failed(now, cooldown)
	return Update{UniqueID: uniqueID, InfoAttempt: &a}
}

// ImageReset returns an update clearing the image and its backoff.
func ImageReset(uniqueID string) Update {
	img := ""
	a := Attempt{}
	return Update{UniqueID: uniqueID, Image: &img, ImageAttempt: &a}
}

// Launched returns an update recording a launch at t.
func Launched(uniqueID string, t time.Time) Update {
	return Update{UniqueID: uniqueID, LaunchTime: &t}
}

// ManualFields are the user editable fields of an entry.
type ManualFields struct {
	Name     string `json:"name" validate:"required,max=256,nocontrol"`
	Launcher string `json:"launcher" validate:"max=64,nocontrol"`
	Path     string `json:"path" validate:"required,nocontrol"`
	Image    string `json:"image" validate:"omitempty,imageref"`
	Info     string `json:"info"`
	AppID    string `json:"appid"`
	Args     string `json:"args"`
}

// Normalize trims surrounding whitespace from every field.
func (f *ManualFields) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Launcher = strings.TrimSpace(f.Launcher)
	f.Path = strings.TrimSpace(f.Path)
	f.Image = strings.TrimSpace(f.Image)
	f.Info = strings.TrimSpace(f.Info)
	f.AppID = strings.TrimSpace(f.AppID)
	f.Args = strings.TrimSpace(f.Args)
}

// Validate checks the fields required for a manual entry.
func (f *ManualFields) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEntry)
	}
	if f.Path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidEntry)
	}
	return nil
}

// NewManual builds a manual entry keyed against taken.
func NewManual(f ManualFields, taken KeySet) (Entry, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return Entry{}, err
	}
	return Entry{
		UniqueID: GenerateKey(f.Launcher, f.Path, taken),
		Name:     f.Name,
		Launcher: f.Launcher,
		Path:     f.Path,
		Source:   SourceManual,
		Image:    f.Image,
		Info:     f.Info,
		AppID:    f.AppID,
		Args:     f.Args,
	}, nil
}

// EditManual applies user edits to an entry and marks it manual. The key is
// regenerated only when the launcher or path changes, in which case the old
// key does not count as taken.
func EditManual(e Entry, f ManualFields, taken KeySet) (Entry, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return Entry{}, err
	}

	if f.Launcher != e.Launcher || f.Path != e.Path {
		old := e.UniqueID
		had := taken.Has(old)
		taken.Remove(old)
		e.UniqueID = GenerateKey(f.Launcher, f.Path, taken)
		if had {
			taken.Add(old)
		}
	}

	if f.Image != e.Image {
		e.ImageAttempt = Attempt{}
	}
	if f.Info != e.Info {
		e.InfoAttempt = Attempt{}
	}

	e.Name = f.Name
	e.Launcher = f.Launcher
	e.Path = f.Path
	e.Image = f.Image
	e.Info = f.Info
	e.AppID = f.AppID
	e.Args = f.Args
	e.Source = SourceManual
	return e, nil
}
