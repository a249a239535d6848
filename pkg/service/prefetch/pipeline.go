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

// Package prefetch resolves missing cover images and metadata text for
// catalog entries. Results are never written to entries directly; each
// lookup produces a catalog.Update handed to a Sink.
package prefetch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-library/pkg/scraper"
	"github.com/ZaparooProject/zaparoo-library/pkg/shared/httpclient"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var (
	// ErrNoProvider is the failure recorded when no metadata API key is set.
	ErrNoProvider = errors.New("no metadata provider configured")
	// ErrSkipped is returned by on-demand fetches for an entry that is not
	// eligible or already has a lookup of the same kind running.
	ErrSkipped = errors.New("fetch skipped")
)

// Sink owns the entries being looked up. Implementations must apply each
// update as a single atomic change. Current returns the live entry, or false
// once it has been removed.
type Sink interface {
	ApplyUpdate(u catalog.Update)
	Current(uniqueID string) (catalog.Entry, bool)
}

type Options struct {
	Provider    scraper.Provider
	Client      *httpclient.Client
	Fs          afero.Fs
	Clock       clockwork.Clock
	CacheDir    string
	Workers     int
	Timeout     time.Duration
	Cooldown    time.Duration
	IncludeInfo bool
}

// Stats summarises one batch pass.
type Stats struct {
	Queued   int
	Resolved int
	Failed   int
	// Skipped counts queued lookups whose entry was removed or resolved
	// before a worker reached it.
	Skipped int
}

type claim struct {
	uniqueID string
	kind     catalog.FetchKind
}

type Pipeline struct {
	sink        Sink
	provider    scraper.Provider
	client      *httpclient.Client
	fs          afero.Fs
	clock       clockwork.Clock
	inFlight    map[claim]struct{}
	cacheDir    string
	workers     int
	timeout     time.Duration
	cooldown    time.Duration
	mu          syncutil.Mutex
	includeInfo bool
}

// New builds a pipeline. A nil Provider is valid: every lookup then fails
// straight away without touching the network.
//
//nolint:gocritic // options struct passed by value
func New(sink Sink, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = config.DefaultPrefetchWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(config.DefaultRequestTimeoutSeconds) * time.Second
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = time.Duration(config.DefaultRetryCooldownSeconds) * time.Second
	}
	if opts.Client == nil {
		opts.Client = httpclient.NewClient(opts.Timeout)
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		sink:        sink,
		provider:    opts.Provider,
		client:      opts.Client,
		fs:          opts.Fs,
		clock:       opts.Clock,
		inFlight:    make(map[claim]struct{}),
		cacheDir:    opts.CacheDir,
		workers:     opts.Workers,
		timeout:     opts.Timeout,
		cooldown:    opts.Cooldown,
		includeInfo: opts.IncludeInfo,
	}
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ImageEligible reports whether an image lookup may run for e at now.
func (p *Pipeline) ImageEligible(e *catalog.Entry, now time.Time) bool {
	if e.IsManual() && e.Image != "" {
		return false
	}
	if isURL(e.Image) {
		return false
	}
	if e.HasImage() {
		if info, err := p.fs.Stat(e.Image); err == nil && !info.IsDir() {
			return false
		}
	}
	return e.ImageAttempt.Eligible(now)
}

// InfoEligible reports whether a metadata lookup may run for e at now.
func InfoEligible(e *catalog.Entry, now time.Time) bool {
	return e.Info == "" && e.InfoAttempt.Eligible(now)
}

func (p *Pipeline) eligible(e *catalog.Entry, kind catalog.FetchKind, now time.Time) bool {
	if kind == catalog.FetchInfo {
		return InfoEligible(e, now)
	}
	return p.ImageEligible(e, now)
}

// live re-reads a claimed entry from the sink. Entries passed in by callers
// may be stale snapshots; a lookup only runs if the live entry still needs
// it.
func (p *Pipeline) live(id string, kind catalog.FetchKind) (catalog.Entry, bool) {
	e, ok := p.sink.Current(id)
	if !ok || !p.eligible(&e, kind, p.clock.Now()) {
		return catalog.Entry{}, false
	}
	return e, true
}

func (p *Pipeline) claim(id string, kind catalog.FetchKind) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := claim{uniqueID: id, kind: kind}
	if _, busy := p.inFlight[c]; busy {
		return false
	}
	p.inFlight[c] = struct{}{}
	return true
}

func (p *Pipeline) release(id string, kind catalog.FetchKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, claim{uniqueID: id, kind: kind})
}

// Busy reports whether a lookup of kind is running for the entry.
func (p *Pipeline) Busy(id string, kind catalog.FetchKind) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, busy := p.inFlight[claim{uniqueID: id, kind: kind}]
	return busy
}

// Prefetch queues every eligible lookup among entries, up to limit entries
// (0 means no limit), and blocks until the workers have drained the queue or
// ctx is cancelled. Failures are recorded through the Sink, not returned.
func (p *Pipeline) Prefetch(ctx context.Context, entries []catalog.Entry, limit int) Stats {
	now := p.clock.Now()

	var jobs []*Job
	picked := 0
	for i := range entries {
		if limit > 0 && picked >= limit {
			break
		}
		e := &entries[i]
		added := false
		if p.ImageEligible(e, now) && p.claim(e.UniqueID, catalog.FetchImage) {
			jobs = append(jobs, &Job{Entry: *e, Kind: catalog.FetchImage})
			added = true
		}
		if p.includeInfo && InfoEligible(e, now) && p.claim(e.UniqueID, catalog.FetchInfo) {
			jobs = append(jobs, &Job{Entry: *e, Kind: catalog.FetchInfo})
			added = true
		}
		if added {
			picked++
		}
	}

	if len(jobs) == 0 {
		return Stats{}
	}

	log.Info().Int("jobs", len(jobs)).Int("workers", p.workers).Msg("starting prefetch")

	queue := NewJobQueue(ctx, len(jobs))
	for _, job := range jobs {
		if err := queue.Enqueue(job); err != nil {
			p.release(job.Entry.UniqueID, job.Kind)
		}
	}
	queue.Close()

	b := &batch{p: p}
	pool := NewWorkerPool(ctx, p.workers, queue.Channel(), b)
	pool.Start()
	pool.Stop()

	// anything left was not started because ctx ended
	for job := range queue.Channel() {
		p.release(job.Entry.UniqueID, job.Kind)
	}

	stats := Stats{
		Queued:   len(jobs),
		Resolved: int(b.resolved.Load()),
		Failed:   int(b.failed.Load()),
		Skipped:  int(b.skipped.Load()),
	}
	log.Info().
		Int("resolved", stats.Resolved).
		Int("failed", stats.Failed).
		Int("skipped", stats.Skipped).
		Msg("prefetch finished")
	return stats
}

type batch struct {
	p        *Pipeline
	resolved atomic.Int64
	failed   atomic.Int64
	skipped  atomic.Int64
}

func (b *batch) ProcessJob(ctx context.Context, job *Job) error {
	defer b.p.release(job.Entry.UniqueID, job.Kind)

	e, ok := b.p.live(job.Entry.UniqueID, job.Kind)
	if !ok {
		b.skipped.Add(1)
		return nil
	}
	err := b.p.run(ctx, &e, job.Kind)
	var fe *catalog.FetchError
	switch {
	case err == nil:
		b.resolved.Add(1)
	case errors.As(err, &fe):
		b.failed.Add(1)
	}
	return err
}

// FetchImage runs one image lookup for e now, with the same eligibility and
// claim rules as a batch pass.
func (p *Pipeline) FetchImage(ctx context.Context, e *catalog.Entry) error {
	return p.fetch(ctx, e, catalog.FetchImage)
}

// FetchInfo runs one metadata lookup for e now.
func (p *Pipeline) FetchInfo(ctx context.Context, e *catalog.Entry) error {
	return p.fetch(ctx, e, catalog.FetchInfo)
}

func (p *Pipeline) fetch(ctx context.Context, e *catalog.Entry, kind catalog.FetchKind) error {
	if !p.eligible(e, kind, p.clock.Now()) || !p.claim(e.UniqueID, kind) {
		return ErrSkipped
	}
	defer p.release(e.UniqueID, kind)

	live, ok := p.live(e.UniqueID, kind)
	if !ok {
		return ErrSkipped
	}
	return p.run(ctx, &live, kind)
}

func (p *Pipeline) run(ctx context.Context, e *catalog.Entry, kind catalog.FetchKind) error {
	var (
		ok   catalog.Update
		err  error
		fail catalog.Update
	)

	switch kind {
	case catalog.FetchImage:
		var path string
		path, err = p.downloadImage(ctx, e)
		ok = catalog.ImageResolved(e.UniqueID, path)
		fail = catalog.ImageFailed(e.UniqueID, p.clock.Now(), p.cooldown)
	case catalog.FetchInfo:
		var text string
		text, err = p.lookupInfo(ctx, e)
		ok = catalog.InfoResolved(e.UniqueID, text)
		fail = catalog.InfoFailed(e.UniqueID, p.clock.Now(), p.cooldown)
	default:
		return fmt.Errorf("unknown fetch kind: %s", kind)
	}

	if err != nil {
		if ctx.Err() != nil {
			// shutting down, leave the entry as it was
			return ctx.Err() //nolint:wrapcheck // context errors are returned as is
		}
		log.Debug().Err(err).
			Str("unique", e.UniqueID).
			Str("kind", string(kind)).
			Msg("lookup failed, backing off")
		p.sink.ApplyUpdate(fail)
		return &catalog.FetchError{Err: err, UniqueID: e.UniqueID, Kind: kind}
	}

	p.sink.ApplyUpdate(ok)
	return nil
}

func (p *Pipeline) search(ctx context.Context, name string) (*scraper.GameInfo, error) {
	if p.provider == nil {
		return nil, ErrNoProvider
	}
	sctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	info, err := p.provider.Search(sctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", p.provider.ID(), err)
	}
	if info == nil {
		return nil, scraper.ErrNoResults
	}
	return info, nil
}

func (p *Pipeline) downloadImage(ctx context.Context, e *catalog.Entry) (string, error) {
	info, err := p.search(ctx, e.Name)
	if err != nil {
		return "", err
	}
	if info.ImageURL == "" {
		return "", scraper.ErrNoResults
	}

	out := filepath.Join(p.cacheDir, catalog.CacheFilename(e.UniqueID))
	dctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err = p.client.DownloadFile(dctx, httpclient.DownloadFileArgs{
		Fs:         p.fs,
		URL:        info.ImageURL,
		OutputPath: out,
	})
	if err != nil {
		return "", fmt.Errorf("downloading image: %w", err)
	}
	return out, nil
}

func (p *Pipeline) lookupInfo(ctx context.Context, e *catalog.Entry) (string, error) {
	info, err := p.search(ctx, e.Name)
	if err != nil {
		return "", err
	}
	return scraper.FormatInfo(info), nil
}
