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

// Package scraper defines the metadata provider contract used to resolve
// artwork and descriptions for catalog entries.
package scraper

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrNoResults     = errors.New("no results")
	ErrInvalidAPIKey = errors.New("invalid api key")
	ErrRateLimited   = errors.New("rate limited by provider")
)

// GameInfo is the subset of provider data the catalog consumes.
type GameInfo struct {
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
	ReleaseDate string `json:"releaseDate"`
	DetailURL   string `json:"detailUrl"`
}

// Provider looks up a game by name and returns the best match.
type Provider interface {
	ID() string
	Search(ctx context.Context, name string) (*GameInfo, error)
}

const (
	noDescription  = "No description."
	unknownRelease = "Unknown"
)

// FormatInfo renders the metadata text stored on an entry.
func FormatInfo(info *GameInfo) string {
	deck := info.Description
	if deck == "" {
		deck = noDescription
	}
	release := info.ReleaseDate
	if release == "" {
		release = unknownRelease
	}
	return deck + "\nRelease date: " + release + "\nDetails: " + info.DetailURL
}

var trademarkStripper = strings.NewReplacer("™", "", "®", "", "©", "")

// NormalizeQuery prepares a catalog name for a provider search: NFC form,
// trademark symbols removed and whitespace collapsed.
func NormalizeQuery(name string) string {
	s := norm.NFC.String(name)
	s = trademarkStripper.Replace(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
