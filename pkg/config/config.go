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

// Package config loads the TOML settings file. Values are read once at
// startup and only the debug log level may change afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/syncutil"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "ZAPAROO_LIBRARY_CFG"
)

var ErrSchemaMismatch = errors.New("schema version mismatch")

type Values struct {
	Metadata     Metadata  `toml:"metadata"`
	Store        Store     `toml:"store"`
	API          API       `toml:"api"`
	Launchers    Launchers `toml:"launchers,omitempty"`
	Monitor      Monitor   `toml:"monitor"`
	Prefetch     Prefetch  `toml:"prefetch"`
	ConfigSchema int       `toml:"config_schema"`
	DebugLogging bool      `toml:"debug_logging"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Metadata: Metadata{
		Provider: ProviderGiantBomb,
	},
	Prefetch: Prefetch{
		Workers:               DefaultPrefetchWorkers,
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
		RetryCooldownSeconds:  DefaultRetryCooldownSeconds,
	},
	Monitor: Monitor{
		PollIntervalSeconds: DefaultPollIntervalSeconds,
		LaunchGraceSeconds:  DefaultLaunchGraceSeconds,
		GraceLaunchers:      []string{"Steam", "Xbox"},
	},
	Store: Store{
		Backend: StoreJSON,
	},
	API: API{
		Listen: "127.0.0.1",
		Port:   DefaultAPIPort,
	},
}

type Instance struct {
	cfgPath  string
	authPath string
	creds    map[string]CredentialEntry
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

// NewConfig reads config.toml from configDir, or the path in
// ZAPAROO_LIBRARY_CFG. A missing file leaves the defaults in place.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	} else {
		log.Debug().Msgf("env config path: %s", cfgPath)
	}

	cfg := Instance{
		cfgPath:  cfgPath,
		authPath: filepath.Join(filepath.Dir(cfgPath), AuthFile),
		vals:     defaults,
		defaults: defaults,
	}

	if err := cfg.Load(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	newVals := c.defaults
	data, err := os.ReadFile(c.cfgPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Info().Str("path", c.cfgPath).Msg("no config file, using defaults")
	case err != nil:
		return fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, &newVals); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return ErrSchemaMismatch
	}

	if err := validate.Struct(&newVals); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.vals = newVals

	c.creds = nil
	if authData, err := os.ReadFile(c.authPath); err == nil {
		c.creds = LoadAuthFromData(authData)
		log.Info().Msgf("loaded %d auth entries", len(c.creds))
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read auth file: %w", err)
	}

	if c.vals.DebugLogging {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Instance) Path() string {
	return c.cfgPath
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

// SetDebugLogging changes the level for this run only.
func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
	if enabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
