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

package prefetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/scraper"
	"github.com/ZaparooProject/zaparoo-library/pkg/shared/httpclient"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cacheDir = "/cache"

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeProvider struct {
	err     error
	info    *scraper.GameInfo
	release chan struct{}
	started chan struct{}
	queries []string
	mu      sync.Mutex
}

func (*fakeProvider) ID() string { return "fake" }

func (f *fakeProvider) Search(ctx context.Context, name string) (*scraper.GameInfo, error) {
	f.mu.Lock()
	f.queries = append(f.queries, name)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	info := *f.info
	return &info, nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// recordingSink keeps the entries it was seeded with up to date and records
// every update it receives.
type recordingSink struct {
	live    map[string]catalog.Entry
	updates []catalog.Update
	mu      sync.Mutex
}

func newRecordingSink(entries ...catalog.Entry) *recordingSink {
	s := &recordingSink{live: make(map[string]catalog.Entry)}
	s.track(entries...)
	return s
}

func (s *recordingSink) track(entries ...catalog.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.live[e.UniqueID] = e
	}
}

func (s *recordingSink) ApplyUpdate(u catalog.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, u)
	if e, ok := s.live[u.UniqueID]; ok {
		u.Apply(&e)
		s.live[u.UniqueID] = e
	}
}

func (s *recordingSink) Current(uniqueID string) (catalog.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live[uniqueID]
	return e, ok
}

func (s *recordingSink) byID() map[string]catalog.Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]catalog.Update, len(s.updates))
	for _, u := range s.updates {
		out[u.UniqueID] = u
	}
	return out
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cover.jpg" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func scanned(id, name string) catalog.Entry {
	return catalog.Entry{
		UniqueID: id,
		Name:     name,
		Launcher: catalog.LauncherGOG,
		Path:     "/games/" + name + ".exe",
		Source:   catalog.SourceScanned,
	}
}

func newTestPipeline(
	sink Sink,
	provider scraper.Provider,
	fs afero.Fs,
	clock clockwork.Clock,
) *Pipeline {
	return New(sink, Options{
		Provider: provider,
		Client:   httpclient.NewClient(2 * time.Second),
		Fs:       fs,
		Clock:    clock,
		CacheDir: cacheDir,
		Workers:  4,
		Timeout:  2 * time.Second,
		Cooldown: 30 * time.Second,
	})
}

func TestPrefetch_ResolvesImages(t *testing.T) {
	t.Parallel()

	srv := imageServer(t)
	provider := &fakeProvider{info: &scraper.GameInfo{ImageURL: srv.URL + "/cover.jpg"}}
	entries := []catalog.Entry{
		scanned("GOG Galaxy_/games/a.exe", "Alpha"),
		scanned("GOG Galaxy_/games/b.exe", "Beta"),
		scanned("GOG Galaxy_/games/c.exe", "Gamma"),
	}
	sink := newRecordingSink(entries...)
	fs := afero.NewMemMapFs()
	p := newTestPipeline(sink, provider, fs, clockwork.NewFakeClockAt(epoch))

	stats := p.Prefetch(context.Background(), entries, 0)
	assert.Equal(t, Stats{Queued: 3, Resolved: 3}, stats)
	assert.Equal(t, 3, provider.calls())

	got := sink.byID()
	require.Len(t, got, 3)
	for _, e := range entries {
		u, ok := got[e.UniqueID]
		require.True(t, ok, e.UniqueID)
		want := filepath.Join(cacheDir, catalog.CacheFilename(e.UniqueID))
		require.NotNil(t, u.Image)
		assert.Equal(t, want, *u.Image)
		assert.Equal(t, catalog.Attempt{Attempted: true}, *u.ImageAttempt)

		data, err := afero.ReadFile(fs, want)
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(data))
	}
}

func TestPrefetch_FailureMarksNotFound(t *testing.T) {
	t.Parallel()

	srv := imageServer(t)
	clock := clockwork.NewFakeClockAt(epoch)
	sink := newRecordingSink()

	tests := []struct {
		provider *fakeProvider
		name     string
	}{
		{name: "no results", provider: &fakeProvider{err: scraper.ErrNoResults}},
		{name: "no image url", provider: &fakeProvider{info: &scraper.GameInfo{Name: "x"}}},
		{name: "image 404", provider: &fakeProvider{info: &scraper.GameInfo{ImageURL: srv.URL + "/missing.jpg"}}},
	}

	for _, tt := range tests {
		p := newTestPipeline(sink, tt.provider, afero.NewMemMapFs(), clock)
		e := scanned("Steam_"+tt.name, "Thing")
		sink.track(e)
		err := p.FetchImage(context.Background(), &e)

		var fe *catalog.FetchError
		require.ErrorAs(t, err, &fe, tt.name)
		assert.Equal(t, catalog.FetchImage, fe.Kind)

		u := sink.byID()[e.UniqueID]
		require.NotNil(t, u.Image, tt.name)
		assert.Equal(t, catalog.ImageNotFound, *u.Image)
		assert.Equal(t, catalog.Attempt{Attempted: true, NextRequest: epoch.Add(30 * time.Second)}, *u.ImageAttempt)
	}
}

func TestPrefetch_NoProviderSkipsNetwork(t *testing.T) {
	t.Parallel()

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits++ }))
	t.Cleanup(srv.Close)

	entries := []catalog.Entry{scanned("a", "A"), scanned("b", "B")}
	sink := newRecordingSink(entries...)
	p := newTestPipeline(sink, nil, afero.NewMemMapFs(), clockwork.NewFakeClockAt(epoch))

	stats := p.Prefetch(context.Background(), entries, 0)
	assert.Equal(t, Stats{Queued: 2, Failed: 2}, stats)
	assert.Zero(t, hits)

	for _, u := range sink.byID() {
		assert.Equal(t, catalog.ImageNotFound, *u.Image)
		assert.True(t, u.ImageAttempt.Attempted)
		assert.Equal(t, epoch.Add(30*time.Second), u.ImageAttempt.NextRequest)
	}
}

func TestPrefetch_BackoffWindow(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(epoch)
	provider := &fakeProvider{err: scraper.ErrNoResults}
	e := scanned("Steam_/g/x.exe", "X")
	e.Image = catalog.ImageNotFound
	e.ImageAttempt = catalog.Attempt{}.Failed(clock.Now(), 30*time.Second)
	sink := newRecordingSink(e)
	p := newTestPipeline(sink, provider, afero.NewMemMapFs(), clock)

	clock.Advance(29 * time.Second)
	stats := p.Prefetch(context.Background(), []catalog.Entry{e}, 0)
	assert.Equal(t, Stats{}, stats)
	require.ErrorIs(t, p.FetchImage(context.Background(), &e), ErrSkipped)
	assert.Zero(t, provider.calls())
	assert.Zero(t, sink.count())

	clock.Advance(2 * time.Second)
	stats = p.Prefetch(context.Background(), []catalog.Entry{e}, 0)
	assert.Equal(t, Stats{Queued: 1, Failed: 1}, stats)
	assert.Equal(t, 1, provider.calls())
	assert.Equal(t, clock.Now().Add(30*time.Second), sink.byID()[e.UniqueID].ImageAttempt.NextRequest)
}

func TestImageEligible(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cache/have.jpg", []byte("x"), 0o600))
	now := epoch
	p := newTestPipeline(newRecordingSink(), nil, fs, clockwork.NewFakeClockAt(now))

	tests := []struct {
		name  string
		entry catalog.Entry
		want  bool
	}{
		{name: "no image", entry: catalog.Entry{}, want: true},
		{name: "manual with image", entry: catalog.Entry{Source: catalog.SourceManual, Image: "/x.png"}, want: false},
		{name: "manual without image", entry: catalog.Entry{Source: catalog.SourceManual}, want: true},
		{name: "url", entry: catalog.Entry{Image: "https://example.com/a.jpg"}, want: false},
		{name: "existing file", entry: catalog.Entry{Image: "/cache/have.jpg"}, want: false},
		{name: "missing file", entry: catalog.Entry{Image: "/cache/gone.jpg"}, want: true},
		{
			name: "not found cooling down",
			entry: catalog.Entry{
				Image:        catalog.ImageNotFound,
				ImageAttempt: catalog.Attempt{Attempted: true, NextRequest: now.Add(time.Second)},
			},
			want: false,
		},
		{
			name: "not found cooled down",
			entry: catalog.Entry{
				Image:        catalog.ImageNotFound,
				ImageAttempt: catalog.Attempt{Attempted: true, NextRequest: now},
			},
			want: true,
		},
		{
			name: "manual cooling down",
			entry: catalog.Entry{
				Source:       catalog.SourceManual,
				ImageAttempt: catalog.Attempt{Attempted: true, NextRequest: now.Add(time.Minute)},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, p.ImageEligible(&tt.entry, now))
		})
	}
}

func TestPrefetch_Limit(t *testing.T) {
	t.Parallel()

	entries := []catalog.Entry{scanned("a", "A"), scanned("b", "B"), scanned("c", "C")}
	entries[0].Image = "https://example.com/a.jpg"
	sink := newRecordingSink(entries...)
	p := newTestPipeline(sink, nil, afero.NewMemMapFs(), clockwork.NewFakeClockAt(epoch))

	stats := p.Prefetch(context.Background(), entries, 1)
	assert.Equal(t, 1, stats.Queued)
	_, ok := sink.byID()["b"]
	assert.True(t, ok)
}

func TestFetchInfo(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(epoch)
	sink := newRecordingSink(scanned("a", "A"))
	provider := &fakeProvider{info: &scraper.GameInfo{
		Description: "A game.",
		ReleaseDate: "2020-01-02",
		DetailURL:   "https://example.com/g",
	}}
	p := newTestPipeline(sink, provider, afero.NewMemMapFs(), clock)

	e := scanned("a", "A")
	require.NoError(t, p.FetchInfo(context.Background(), &e))
	u := sink.byID()["a"]
	require.NotNil(t, u.Info)
	assert.Equal(t, "A game.\nRelease date: 2020-01-02\nDetails: https://example.com/g", *u.Info)
	assert.Nil(t, u.Image)

	e.Info = *u.Info
	require.ErrorIs(t, p.FetchInfo(context.Background(), &e), ErrSkipped)
}

func TestFetchInfo_FailureKeepsText(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(epoch)
	sink := newRecordingSink(scanned("a", "A"))
	p := newTestPipeline(sink, &fakeProvider{err: scraper.ErrRateLimited}, afero.NewMemMapFs(), clock)

	e := scanned("a", "A")
	err := p.FetchInfo(context.Background(), &e)
	require.ErrorIs(t, err, scraper.ErrRateLimited)

	u := sink.byID()["a"]
	assert.Nil(t, u.Info)
	assert.Equal(t, catalog.Attempt{Attempted: true, NextRequest: epoch.Add(30 * time.Second)}, *u.InfoAttempt)
}

func TestPrefetch_IncludeInfo(t *testing.T) {
	t.Parallel()

	sink := newRecordingSink(scanned("a", "A"))
	p := New(sink, Options{
		Fs:          afero.NewMemMapFs(),
		Clock:       clockwork.NewFakeClockAt(epoch),
		CacheDir:    cacheDir,
		IncludeInfo: true,
	})

	stats := p.Prefetch(context.Background(), []catalog.Entry{scanned("a", "A")}, 0)
	assert.Equal(t, Stats{Queued: 2, Failed: 2}, stats)
}

func TestPrefetch_StaleSnapshotKeepsResolvedImage(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	provider := &fakeProvider{err: scraper.ErrNoResults}
	e := scanned("Steam_/g/x.exe", "X")
	sink := newRecordingSink(e)
	p := newTestPipeline(sink, provider, fs, clockwork.NewFakeClockAt(epoch))

	snapshot := []catalog.Entry{e}

	// an on-demand lookup resolves the entry after the snapshot was taken
	cached := filepath.Join(cacheDir, catalog.CacheFilename(e.UniqueID))
	require.NoError(t, afero.WriteFile(fs, cached, []byte("jpeg-bytes"), 0o600))
	sink.ApplyUpdate(catalog.ImageResolved(e.UniqueID, cached))

	stats := p.Prefetch(context.Background(), snapshot, 0)
	assert.Equal(t, Stats{Queued: 1, Skipped: 1}, stats)
	require.ErrorIs(t, p.FetchImage(context.Background(), &snapshot[0]), ErrSkipped)
	assert.Zero(t, provider.calls())

	live, ok := sink.Current(e.UniqueID)
	require.True(t, ok)
	assert.Equal(t, cached, live.Image)
	assert.Equal(t, catalog.Attempt{Attempted: true}, live.ImageAttempt)
}

func TestPrefetch_RemovedEntrySkipped(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{err: scraper.ErrNoResults}
	sink := newRecordingSink()
	p := newTestPipeline(sink, provider, afero.NewMemMapFs(), clockwork.NewFakeClockAt(epoch))

	stats := p.Prefetch(context.Background(), []catalog.Entry{scanned("gone", "Gone")}, 0)
	assert.Equal(t, Stats{Queued: 1, Skipped: 1}, stats)
	assert.Zero(t, provider.calls())
	assert.Zero(t, sink.count())
}
