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

// Package library owns the in-memory game catalog. Every change to it, from
// scans, user edits, prefetch results or launches, is applied here under a
// single lock, and persisted through a database.CatalogStore.
package library

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ZaparooProject/zaparoo-library/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-library/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/database"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/command"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-library/pkg/launch"
	"github.com/ZaparooProject/zaparoo-library/pkg/scanners"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/monitor"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/prefetch"
	"github.com/ZaparooProject/zaparoo-library/pkg/shared/httpclient"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// MaxScanErrors bounds the in-memory and persisted scan error log.
const MaxScanErrors = 100

type Options struct {
	Store         database.CatalogStore
	Executor      command.Executor
	Client        *httpclient.Client
	Fs            afero.Fs
	Clock         clockwork.Clock
	Notifications chan<- models.Notification
	Scanners      []scanners.Scanner
	Prefetch      prefetch.Options
	Monitor       monitor.Options
}

type Library struct {
	ctx        context.Context
	store      database.CatalogStore
	launcher   *launch.Launcher
	pipeline   *prefetch.Pipeline
	monitor    *monitor.Monitor
	client     *httpclient.Client
	fs         afero.Fs
	clock      clockwork.Clock
	ns         chan<- models.Notification
	index      map[string]int
	selected   string
	scanners   []scanners.Scanner
	entries    []catalog.Entry
	manual     []catalog.Entry
	scanErrors []catalog.ScanError
	fetches    sync.WaitGroup
	mu         syncutil.RWMutex
	scanMu     syncutil.Mutex
	persistMu  syncutil.Mutex
}

// New builds a Library. ctx bounds background work started by the library,
// such as on-demand fetches.
//
//nolint:gocritic // options struct passed by value
func New(ctx context.Context, opts Options) *Library {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Executor == nil {
		opts.Executor = &command.RealExecutor{}
	}
	if opts.Client == nil {
		opts.Client = httpclient.NewClient(httpclient.DefaultTimeout)
	}

	l := &Library{
		ctx:      ctx,
		store:    opts.Store,
		launcher: launch.New(opts.Executor),
		client:   opts.Client,
		fs:       opts.Fs,
		clock:    opts.Clock,
		ns:       opts.Notifications,
		scanners: opts.Scanners,
		index:    make(map[string]int),
	}

	popts := opts.Prefetch
	if popts.Fs == nil {
		popts.Fs = opts.Fs
	}
	if popts.Clock == nil {
		popts.Clock = opts.Clock
	}
	if popts.Client == nil {
		popts.Client = opts.Client
	}
	l.pipeline = prefetch.New(l, popts)

	mopts := opts.Monitor
	if mopts.Clock == nil {
		mopts.Clock = opts.Clock
	}
	mopts.OnChange = func(id string, s monitor.Status) {
		notifications.StatusChanged(l.ns, id, string(s))
	}
	l.monitor = monitor.New(mopts)

	return l
}

// Run drives the process monitor and, when the store supports it, reloads
// manual overrides edited outside the library. It returns when ctx is done.
func (l *Library) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.monitor.Run(gctx)
		return nil
	})
	if w, ok := l.store.(database.ManualWatcher); ok {
		g.Go(func() error {
			err := w.WatchManual(gctx, func() {
				if err := l.ReloadManual(gctx); err != nil {
					log.Error().Err(err).Msg("error reloading manual entries")
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("manual entry watcher stopped")
			}
			return nil
		})
	}
	return g.Wait() //nolint:wrapcheck // errgroup returns member errors as is
}

// Wait blocks until background fetches started by the library have
// finished. Cancel the library context first.
func (l *Library) Wait() {
	l.fetches.Wait()
}

// Startup loads the stored catalog, scans when it is empty and then starts
// a background prefetch pass.
func (l *Library) Startup(ctx context.Context) error {
	if err := l.Load(ctx); err != nil {
		return err
	}
	if len(l.List()) == 0 {
		if _, err := l.Scan(ctx); err != nil {
			return err
		}
	}
	l.fetches.Go(func() {
		l.Prefetch(l.ctx, 0)
	})
	return nil
}

// Load replaces the in-memory state with what the store holds.
func (l *Library) Load(ctx context.Context) error {
	stored, err := l.store.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	manual, err := l.store.LoadManual(ctx)
	if err != nil {
		return fmt.Errorf("loading manual entries: %w", err)
	}
	scanErrs, err := l.store.LoadScanErrors(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("error loading scan error log")
	}

	l.mu.Lock()
	l.manual = manual
	l.scanErrors = scanErrs
	l.setEntries(catalog.MergeOverrides(stored, manual))
	total := len(l.entries)
	l.mu.Unlock()

	log.Info().Int("entries", total).Int("manual", len(manual)).Msg("loaded catalog")
	notifications.CatalogUpdated(l.ns, total)
	return nil
}

// setEntries must be called with mu held.
func (l *Library) setEntries(entries []catalog.Entry) {
	l.entries = entries
	l.index = make(map[string]int, len(entries))
	for i := range entries {
		l.index[entries[i].UniqueID] = i
	}
}

// takenKeys must be called with mu held.
func (l *Library) takenKeys() catalog.KeySet {
	ks := catalog.NewKeySet(l.entries...)
	for i := range l.manual {
		ks.Add(l.manual[i].UniqueID)
	}
	return ks
}

func (l *Library) List() []catalog.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

func (l *Library) Get(id string) (catalog.Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[id]
	if !ok {
		return catalog.Entry{}, fmt.Errorf("%w: %s", catalog.ErrEntryNotFound, id)
	}
	return l.entries[i], nil
}

// Current returns the live entry for id. It lets lookups started from an
// older snapshot check the entry still needs them.
func (l *Library) Current(id string) (catalog.Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[id]
	if !ok {
		return catalog.Entry{}, false
	}
	return l.entries[i], true
}

// ErrorLog returns the accumulated scan errors, oldest first.
func (l *Library) ErrorLog() []catalog.ScanError {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.scanErrors)
}

// Status returns the monitored entry and its last known run state.
func (l *Library) Status() (string, monitor.Status) {
	id, status, _ := l.monitor.Current()
	return id, status
}

// ApplyUpdate applies a single prefetch or launch result. Updates for
// entries that no longer exist are dropped.
func (l *Library) ApplyUpdate(u catalog.Update) {
	l.mu.Lock()
	i, ok := l.index[u.UniqueID]
	if !ok {
		l.mu.Unlock()
		log.Debug().Str("unique", u.UniqueID).Msg("dropping update for removed entry")
		return
	}
	u.Apply(&l.entries[i])
	e := l.entries[i]
	if e.IsManual() {
		for j := range l.manual {
			if l.manual[j].UniqueID == u.UniqueID {
				u.Apply(&l.manual[j])
			}
		}
	}
	l.mu.Unlock()

	notifications.EntryUpdated(l.ns, e)
}

// persist writes the catalog and, when withManual is set, the manual
// collection. Failures are logged; the in-memory state stays authoritative.
func (l *Library) persist(ctx context.Context, withManual bool) {
	l.persistMu.Lock()
	defer l.persistMu.Unlock()

	l.mu.RLock()
	entries := slices.Clone(l.entries)
	var manual []catalog.Entry
	if withManual {
		manual = slices.Clone(l.manual)
	}
	l.mu.RUnlock()

	if err := l.store.SaveCatalog(ctx, entries); err != nil {
		logPersistErr(&catalog.PersistenceError{Err: err, Collection: database.CollectionCatalog})
	}
	if withManual {
		if err := l.store.SaveManual(ctx, manual); err != nil {
			logPersistErr(&catalog.PersistenceError{Err: err, Collection: database.CollectionManual})
		}
	}
}

func logPersistErr(err *catalog.PersistenceError) {
	log.Error().Err(err.Err).Str("collection", err.Collection).Msg("error persisting collection")
}
