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

// Package cli implements the zaparoo-library command line: config and
// logging setup, store selection and the serve, scan, list, prefetch and
// export commands.
package cli

import (
	"fmt"
	"io"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	dataDir string
	debug   bool
}

// Setup initializes logging and loads the user config.
//
//nolint:gocritic // config struct copied for immutability
func Setup(defaults config.Values, writers ...io.Writer) (*config.Instance, error) {
	if err := helpers.InitLogging(helpers.LogDir(), writers...); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(), defaults)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return cfg, nil
}

// NewRootCmd builds the command tree. Config is loaded once before any
// subcommand runs.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	var cfg *config.Instance

	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "Catalog of installed PC games with artwork and launch tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			cfg, err = Setup(config.BaseDefaults, helpers.ConsoleWriter())
			if err != nil {
				return err
			}
			if flags.debug {
				cfg.SetDebugLogging(true)
			}
			if flags.dataDir == "" {
				flags.dataDir = helpers.DataDir()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "directory holding the catalog store")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging for this run")

	getCfg := func() *config.Instance { return cfg }
	root.AddCommand(
		newServeCmd(flags, getCfg),
		newScanCmd(flags, getCfg),
		newListCmd(flags, getCfg),
		newPrefetchCmd(flags, getCfg),
		newExportCmd(flags, getCfg),
	)
	return root
}
