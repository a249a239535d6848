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

// Package monitor reports whether the currently selected game is running.
package monitor

import (
	"context"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Status string

const (
	StatusNone      Status = ""
	StatusLaunching Status = "launching"
	StatusRunning   Status = "running"
	StatusStopped   Status = "stopped"
)

type State int

const (
	StateIdle State = iota
	StateLaunchGrace
	StatePolling
)

func (s State) String() string {
	switch s {
	case StateLaunchGrace:
		return "launch_grace"
	case StatePolling:
		return "polling"
	default:
		return "idle"
	}
}

// ChangeFunc is called, outside any lock, when the selected entry's status
// changes.
type ChangeFunc func(uniqueID string, status Status)

type Options struct {
	Lister         ProcessLister
	Clock          clockwork.Clock
	OnChange       ChangeFunc
	GraceLaunchers []string
	Interval       time.Duration
	Grace          time.Duration
}

// Monitor tracks at most one selected entry. Checks run on the Run
// goroutine; a check whose selection was replaced while it enumerated
// processes is discarded.
type Monitor struct {
	lister     ProcessLister
	clock      clockwork.Clock
	onChange   ChangeFunc
	wake       chan struct{}
	graceSet   map[string]struct{}
	entry      catalog.Entry
	status     Status
	generation uint64
	interval   time.Duration
	grace      time.Duration
	state      State
	mu         syncutil.Mutex
}

//nolint:gocritic // options struct passed by value
func New(opts Options) *Monitor {
	if opts.Lister == nil {
		opts.Lister = &GopsutilLister{}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Duration(config.DefaultPollIntervalSeconds) * time.Second
	}
	if opts.Grace <= 0 {
		opts.Grace = time.Duration(config.DefaultLaunchGraceSeconds) * time.Second
	}
	if opts.GraceLaunchers == nil {
		opts.GraceLaunchers = []string{catalog.LauncherSteam, catalog.LauncherXbox}
	}

	graceSet := make(map[string]struct{}, len(opts.GraceLaunchers))
	for _, l := range opts.GraceLaunchers {
		graceSet[strings.ToLower(l)] = struct{}{}
	}

	return &Monitor{
		lister:   opts.Lister,
		clock:    opts.Clock,
		onChange: opts.OnChange,
		wake:     make(chan struct{}, 1),
		graceSet: graceSet,
		interval: opts.Interval,
		grace:    opts.Grace,
	}
}

func (m *Monitor) inGrace(e *catalog.Entry, now time.Time) bool {
	if _, ok := m.graceSet[strings.ToLower(e.Launcher)]; !ok {
		return false
	}
	return !e.LaunchTime.IsZero() && now.Sub(e.LaunchTime) < m.grace
}

// Select makes e the monitored entry and requests an immediate check.
func (m *Monitor) Select(e *catalog.Entry) {
	m.mu.Lock()
	m.generation++
	m.entry = *e
	m.status = StatusNone
	if m.inGrace(e, m.clock.Now()) {
		m.state = StateLaunchGrace
	} else {
		m.state = StatePolling
	}
	log.Debug().
		Str("unique", e.UniqueID).
		Stringer("state", m.state).
		Msg("monitoring selection")
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Clear stops monitoring.
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.entry = catalog.Entry{}
	m.status = StatusNone
	m.state = StateIdle
}

// Current returns the monitored entry's key, its last status and the state.
func (m *Monitor) Current() (string, Status, State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entry.UniqueID, m.status, m.state
}

// Run checks the selection on every tick and whenever Select is called,
// until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		case <-m.wake:
		}
		m.Check(ctx)
	}
}

// Check runs one status check for the current selection.
func (m *Monitor) Check(ctx context.Context) {
	m.mu.Lock()
	if m.state == StateIdle {
		m.mu.Unlock()
		return
	}
	gen := m.generation
	entry := m.entry

	if m.state == StateLaunchGrace {
		if m.inGrace(&entry, m.clock.Now()) {
			changed := m.setStatus(StatusLaunching)
			m.mu.Unlock()
			m.notify(changed, entry.UniqueID, StatusLaunching)
			return
		}
		m.state = StatePolling
	}
	m.mu.Unlock()

	names, err := m.lister.Names(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("error listing processes")
		return
	}
	status := StatusStopped
	if exeRunning(entry.Path, names) {
		status = StatusRunning
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		log.Debug().Str("unique", entry.UniqueID).Msg("dropping stale status check")
		return
	}
	changed := m.setStatus(status)
	m.mu.Unlock()
	m.notify(changed, entry.UniqueID, status)
}

func (m *Monitor) setStatus(s Status) bool {
	if m.status == s {
		return false
	}
	m.status = s
	return true
}

func (m *Monitor) notify(changed bool, id string, s Status) {
	if changed && m.onChange != nil {
		m.onChange(id, s)
	}
}
