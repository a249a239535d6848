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
	"errors"
	"fmt"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/prefetch"
	"github.com/ZaparooProject/zaparoo-library/pkg/shared/httpclient"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var ErrNoImage = errors.New("entry has no image")

// Select makes id the monitored entry. The first time an entry without
// artwork or metadata is selected, lookups for it are started.
func (l *Library) Select(id string) (catalog.Entry, error) {
	l.mu.Lock()
	i, ok := l.index[id]
	if !ok {
		l.mu.Unlock()
		return catalog.Entry{}, fmt.Errorf("%w: %s", catalog.ErrEntryNotFound, id)
	}
	e := l.entries[i]
	l.selected = id
	l.mu.Unlock()

	l.monitor.Select(&e)

	now := l.clock.Now()
	if l.pipeline.ImageEligible(&e, now) {
		l.startFetch(e, catalog.FetchImage)
	}
	if prefetch.InfoEligible(&e, now) {
		l.startFetch(e, catalog.FetchInfo)
	}
	return e, nil
}

// Launch starts the game, records the launch time and selects it so the
// monitor can apply any launch grace period.
func (l *Library) Launch(ctx context.Context, id string) error {
	e, err := l.Get(id)
	if err != nil {
		return err
	}
	if err := l.launcher.Launch(ctx, &e); err != nil {
		return err //nolint:wrapcheck // LaunchError is returned to the user as is
	}

	l.ApplyUpdate(catalog.Launched(id, l.clock.Now()))
	l.persist(ctx, false)
	_, err = l.Select(id)
	return err
}

// ResetImage clears an entry's image and backoff, then looks it up again.
func (l *Library) ResetImage(ctx context.Context, id string) error {
	if _, err := l.Get(id); err != nil {
		return err
	}
	l.ApplyUpdate(catalog.ImageReset(id))
	l.persist(ctx, true)

	e, err := l.Get(id)
	if err != nil {
		return err
	}
	l.startFetch(e, catalog.FetchImage)
	return nil
}

// RequestFetch starts an on-demand lookup of kind for id in the background.
func (l *Library) RequestFetch(id string, kind catalog.FetchKind) error {
	e, err := l.Get(id)
	if err != nil {
		return err
	}
	l.startFetch(e, kind)
	return nil
}

//nolint:gocritic // entry snapshot passed by value to the goroutine
func (l *Library) startFetch(e catalog.Entry, kind catalog.FetchKind) {
	l.fetches.Go(func() {
		var err error
		if kind == catalog.FetchInfo {
			err = l.pipeline.FetchInfo(l.ctx, &e)
		} else {
			err = l.pipeline.FetchImage(l.ctx, &e)
		}
		switch {
		case errors.Is(err, prefetch.ErrSkipped):
			return
		case err != nil:
			log.Debug().Err(err).Str("unique", e.UniqueID).Msg("on-demand fetch failed")
		}
		if l.ctx.Err() == nil {
			l.persist(l.ctx, e.IsManual())
		}
	})
}

// Prefetch runs a batch lookup pass over the catalog and persists the
// results.
func (l *Library) Prefetch(ctx context.Context, limit int) prefetch.Stats {
	stats := l.pipeline.Prefetch(ctx, l.List(), limit)
	if stats.Queued > 0 {
		l.persist(ctx, true)
	}
	return stats
}

// ImageBytes returns the entry's artwork, read from disk or downloaded.
func (l *Library) ImageBytes(ctx context.Context, id string) ([]byte, error) {
	e, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	if !e.HasImage() {
		return nil, ErrNoImage
	}

	lower := strings.ToLower(e.Image)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		data, err := l.client.Fetch(ctx, e.Image, httpclient.MaxImageBytes)
		if err != nil {
			return nil, fmt.Errorf("fetching image: %w", err)
		}
		return data, nil
	}

	data, err := afero.ReadFile(l.fs, e.Image)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return data, nil
}
