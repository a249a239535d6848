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

package library

import (
	"context"
	"fmt"
	"slices"

	"github.com/ZaparooProject/zaparoo-library/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/rs/zerolog/log"
)

// AddManual registers a user defined game.
//
//nolint:gocritic // fields copied so they can be normalised
func (l *Library) AddManual(ctx context.Context, f catalog.ManualFields) (catalog.Entry, error) {
	l.mu.Lock()
	e, err := catalog.NewManual(f, l.takenKeys())
	if err != nil {
		l.mu.Unlock()
		return catalog.Entry{}, err //nolint:wrapcheck // validation errors are returned as is
	}
	l.manual = append(l.manual, e)
	l.setEntries(append(l.entries, e))
	total := len(l.entries)
	l.mu.Unlock()

	log.Info().Str("unique", e.UniqueID).Str("name", e.Name).Msg("added manual entry")
	l.persist(ctx, true)
	notifications.CatalogUpdated(l.ns, total)
	return e, nil
}

// EditManual applies user edits to any entry, turning it into a manual
// override. The key only changes when the launcher or path does.
//
//nolint:gocritic // fields copied so they can be normalised
func (l *Library) EditManual(ctx context.Context, id string, f catalog.ManualFields) (catalog.Entry, error) {
	l.mu.Lock()
	i, ok := l.index[id]
	if !ok {
		l.mu.Unlock()
		return catalog.Entry{}, fmt.Errorf("%w: %s", catalog.ErrEntryNotFound, id)
	}

	edited, err := catalog.EditManual(l.entries[i], f, l.takenKeys())
	if err != nil {
		l.mu.Unlock()
		return catalog.Entry{}, err //nolint:wrapcheck // validation errors are returned as is
	}

	l.entries[i] = edited
	l.setEntries(l.entries)

	replaced := false
	for j := range l.manual {
		if l.manual[j].UniqueID == id {
			l.manual[j] = edited
			replaced = true
			break
		}
	}
	if !replaced {
		l.manual = append(l.manual, edited)
	}

	reselect := l.selected == id
	if reselect {
		l.selected = edited.UniqueID
	}
	l.mu.Unlock()

	if reselect {
		l.monitor.Select(&edited)
	}

	log.Info().Str("unique", edited.UniqueID).Str("previous", id).Msg("edited entry")
	l.persist(ctx, true)
	notifications.EntryUpdated(l.ns, edited)
	return edited, nil
}

// Delete removes an entry from the catalog and from the manual overrides.
// A deleted scanned game reappears on the next scan.
func (l *Library) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	i, ok := l.index[id]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", catalog.ErrEntryNotFound, id)
	}
	l.setEntries(slices.Delete(l.entries, i, i+1))
	l.manual = slices.DeleteFunc(l.manual, func(e catalog.Entry) bool {
		return e.UniqueID == id
	})
	wasSelected := l.selected == id
	if wasSelected {
		l.selected = ""
	}
	total := len(l.entries)
	l.mu.Unlock()

	if wasSelected {
		l.monitor.Clear()
	}

	log.Info().Str("unique", id).Msg("deleted entry")
	l.persist(ctx, true)
	notifications.CatalogUpdated(l.ns, total)
	return nil
}

// ReloadManual re-reads the manual overrides from the store and applies
// them to the current catalog in place of the previous set. An override
// removed from the store takes its game out of the catalog; a scanned game
// it replaced comes back on the next scan.
func (l *Library) ReloadManual(ctx context.Context) error {
	manual, err := l.store.LoadManual(ctx)
	if err != nil {
		return fmt.Errorf("loading manual entries: %w", err)
	}

	l.mu.Lock()
	l.manual = manual
	scanned := slices.DeleteFunc(slices.Clone(l.entries), func(e catalog.Entry) bool {
		return e.IsManual()
	})
	l.setEntries(catalog.MergeOverrides(scanned, manual))
	total := len(l.entries)
	lostSelection := false
	if _, ok := l.index[l.selected]; !ok && l.selected != "" {
		l.selected = ""
		lostSelection = true
	}
	l.mu.Unlock()

	if lostSelection {
		l.monitor.Clear()
	}

	log.Info().Int("manual", len(manual)).Msg("reloaded manual entries")
	l.persist(ctx, false)
	notifications.CatalogUpdated(l.ns, total)
	return nil
}
