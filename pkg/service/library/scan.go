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

	"github.com/ZaparooProject/zaparoo-library/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-library/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const scanConcurrency = 4

// ScanResult summarises one scan run.
type ScanResult struct {
	RunID  string
	Errors []catalog.ScanError
	Total  int
}

// Scan runs every scanner, reconciles the results with the manual
// overrides and replaces the catalog. A failing scanner is recorded in the
// error log and contributes no entries; it does not fail the scan.
func (l *Library) Scan(ctx context.Context) (ScanResult, error) {
	l.scanMu.Lock()
	defer l.scanMu.Unlock()

	runID := uuid.New().String()
	logger := log.With().Str("run_id", runID).Logger()
	logger.Info().Int("scanners", len(l.scanners)).Msg("starting scan")

	batches := make([]catalog.ScanBatch, len(l.scanners))
	failures := make([]*catalog.ScanError, len(l.scanners))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for i, s := range l.scanners {
		g.Go(func() error {
			batches[i].Launcher = s.ID()
			raw, err := s.Scan(gctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err() //nolint:wrapcheck // context errors are returned as is
				}
				logger.Error().Err(err).Str("launcher", s.ID()).Msg("scanner failed")
				failures[i] = &catalog.ScanError{
					Time:     l.clock.Now(),
					RunID:    runID,
					Launcher: s.ID(),
					Message:  err.Error(),
				}
				return nil
			}
			logger.Debug().Str("launcher", s.ID()).Int("found", len(raw)).Msg("scanner finished")
			batches[i].Entries = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ScanResult{}, fmt.Errorf("scan cancelled: %w", err)
	}

	var scanErrs []catalog.ScanError
	for _, f := range failures {
		if f != nil {
			scanErrs = append(scanErrs, *f)
		}
	}

	l.mu.Lock()
	previous := make(map[string]catalog.Entry, len(l.entries))
	for _, e := range l.entries {
		previous[e.UniqueID] = e
	}
	merged := catalog.Reconcile(batches, l.manual)
	for i := range merged {
		if prev, ok := previous[merged[i].UniqueID]; ok && !merged[i].IsManual() {
			carryFetchState(&merged[i], &prev)
		}
	}
	l.setEntries(merged)
	if len(scanErrs) > 0 {
		l.scanErrors = append(l.scanErrors, scanErrs...)
		if over := len(l.scanErrors) - MaxScanErrors; over > 0 {
			l.scanErrors = l.scanErrors[over:]
		}
	}
	errLog := append([]catalog.ScanError(nil), l.scanErrors...)
	total := len(merged)
	l.mu.Unlock()

	l.persist(ctx, false)
	if len(scanErrs) > 0 {
		if err := l.store.SaveScanErrors(ctx, errLog); err != nil {
			log.Error().Err(err).Msg("error persisting scan error log")
		}
	}

	logger.Info().Int("entries", total).Int("failed_launchers", len(scanErrs)).Msg("scan finished")
	notifications.ScanCompleted(l.ns, models.ScanCompletedParams{
		RunID:  runID,
		Total:  total,
		Errors: scanErrs,
	})
	notifications.CatalogUpdated(l.ns, total)

	return ScanResult{RunID: runID, Total: total, Errors: scanErrs}, nil
}

// carryFetchState keeps lookup results and launch history across rescans of
// the same game. Artwork supplied by the scanner itself wins.
func carryFetchState(e, prev *catalog.Entry) {
	if e.Image == "" {
		e.Image = prev.Image
		e.ImageAttempt = prev.ImageAttempt
	}
	e.Info = prev.Info
	e.InfoAttempt = prev.InfoAttempt
	e.LaunchTime = prev.LaunchTime
}
