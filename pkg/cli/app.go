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

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-library/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/database"
	"github.com/ZaparooProject/zaparoo-library/pkg/database/catalogdb"
	"github.com/ZaparooProject/zaparoo-library/pkg/database/jsonstore"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/command"
	"github.com/ZaparooProject/zaparoo-library/pkg/scanners"
	"github.com/ZaparooProject/zaparoo-library/pkg/scraper"
	"github.com/ZaparooProject/zaparoo-library/pkg/scraper/giantbomb"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/library"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/monitor"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/prefetch"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const notificationBuffer = 100

var ErrAlreadyRunning = errors.New("another instance is using the data directory")

// App is a fully wired library for one command run.
type App struct {
	Config        *config.Instance
	Library       *library.Library
	Notifications chan models.Notification
	store         database.CatalogStore
	cancel        context.CancelFunc
}

func openStore(cfg *config.Instance, fs afero.Fs, dataDir string) (database.CatalogStore, error) {
	switch cfg.StoreBackend() {
	case config.StoreSQLite:
		db, err := catalogdb.Open(dataDir)
		if err != nil {
			return nil, fmt.Errorf("error opening catalog database: %w", err)
		}
		return db, nil
	default:
		return jsonstore.New(fs, dataDir), nil
	}
}

// newProvider returns nil when no API key is configured, which disables
// every network lookup.
func newProvider(cfg *config.Instance) scraper.Provider {
	key := cfg.MetadataAPIKey()
	if key == "" {
		log.Info().Msg("no metadata api key configured, online lookups disabled")
		return nil
	}
	return giantbomb.New(key, cfg.RequestTimeout())
}

// OpenApp opens the configured store and builds the library. Close must
// be called to stop background work and release the store.
func OpenApp(ctx context.Context, cfg *config.Instance, dataDir string) (*App, error) {
	fs := afero.NewOsFs()
	store, err := openStore(cfg, fs, dataDir)
	if err != nil {
		return nil, err
	}

	exec := &command.RealExecutor{}
	ns := make(chan models.Notification, notificationBuffer)
	ctx, cancel := context.WithCancel(ctx)

	lib := library.New(ctx, library.Options{
		Store:         store,
		Executor:      exec,
		Fs:            fs,
		Notifications: ns,
		Scanners:      scanners.FromConfig(cfg, exec),
		Prefetch: prefetch.Options{
			Provider:    newProvider(cfg),
			CacheDir:    cfg.ImageCacheDir(filepath.Join(dataDir, config.ImageCacheDir)),
			Workers:     cfg.PrefetchWorkers(),
			Timeout:     cfg.RequestTimeout(),
			Cooldown:    cfg.RetryCooldown(),
			IncludeInfo: cfg.PrefetchInfo(),
		},
		Monitor: monitor.Options{
			Lister:         &monitor.GopsutilLister{},
			GraceLaunchers: cfg.GraceLaunchers(),
			Interval:       cfg.PollInterval(),
			Grace:          cfg.LaunchGrace(),
		},
	})

	return &App{
		Config:        cfg,
		Library:       lib,
		Notifications: ns,
		store:         store,
		cancel:        cancel,
	}, nil
}

func (a *App) Close() error {
	a.cancel()
	a.Library.Wait()
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("error closing store: %w", err)
	}
	return nil
}

// lockDataDir takes an exclusive lock on the data directory so two
// processes never rewrite the store at the same time.
func lockDataDir(dataDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("error creating data directory: %w", err)
	}
	lock := flock.New(filepath.Join(dataDir, config.LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("error locking data directory: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, dataDir)
	}
	return lock, nil
}

func unlock(lock *flock.Flock) {
	if err := lock.Unlock(); err != nil {
		log.Warn().Err(err).Msg("error releasing data directory lock")
	}
}
