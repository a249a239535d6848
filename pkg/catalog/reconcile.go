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

// Reconcile merges the output of one scan run with the persisted manual
// overrides. Scanned entries are keyed in batch order against a run-wide
// key set, a manual entry with the same key replaces its scanned twin in
// place, and manual entries with no scanned twin are appended in manual
// order. The result holds each key once: the last value seen for a key wins
// and keeps the position where that key first appeared.
func Reconcile(batches []ScanBatch, manual []Entry) []Entry {
	taken := make(KeySet)
	scanned := make([]Entry, 0, countRaw(batches))
	for _, batch := range batches {
		for _, raw := range batch.Entries {
			scanned = append(scanned, Entry{
				UniqueID: ClaimKey(batch.Launcher, raw.Path, taken),
				Name:     raw.Name,
				Launcher: batch.Launcher,
				Path:     raw.Path,
				Source:   SourceScanned,
				Image:    raw.Image,
				AppID:    raw.AppID,
				Args:     raw.Args,
			})
		}
	}
	return MergeOverrides(scanned, manual)
}

// MergeOverrides applies manual overrides to an already keyed catalog using
// the same replacement, orphan and dedup rules as Reconcile.
func MergeOverrides(current, manual []Entry) []Entry {
	overrides := make(map[string]Entry, len(manual))
	for i := range manual {
		overrides[manual[i].UniqueID] = manual[i]
	}

	seen := make(KeySet, len(current))
	merged := make([]Entry, 0, len(current)+len(manual))
	for i := range current {
		key := current[i].UniqueID
		seen.Add(key)
		if m, ok := overrides[key]; ok {
			merged = append(merged, m)
			continue
		}
		merged = append(merged, current[i])
	}
	for i := range manual {
		if !seen.Has(manual[i].UniqueID) {
			merged = append(merged, manual[i])
		}
	}

	return Dedup(merged)
}

// Dedup collapses entries sharing a unique ID. The surviving value is the
// last one in the input, placed at the index of the first.
func Dedup(entries []Entry) []Entry {
	pos := make(map[string]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for i := range entries {
		if at, ok := pos[entries[i].UniqueID]; ok {
			out[at] = entries[i]
			continue
		}
		pos[entries[i].UniqueID] = len(out)
		out = append(out, entries[i])
	}
	return out
}

func countRaw(batches []ScanBatch) int {
	n := 0
	for _, b := range batches {
		n += len(b.Entries)
	}
	return n
}
