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
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/zaparoo-library/pkg/api"
	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type configFunc func() *config.Instance

// withApp opens the library for one command and closes it afterwards.
// Mutating commands hold the data directory lock for the whole run.
func withApp(
	ctx context.Context,
	flags *globalFlags,
	cfg *config.Instance,
	locked bool,
	fn func(ctx context.Context, app *App) error,
) (returnErr error) {
	if locked {
		lock, err := lockDataDir(flags.dataDir)
		if err != nil {
			return err
		}
		defer unlock(lock)
	}

	app, err := OpenApp(ctx, cfg, flags.dataDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil && returnErr == nil {
			returnErr = err
		}
	}()

	return fn(ctx, app)
}

func newServeCmd(flags *globalFlags, getCfg configFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the library service and presentation API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getCfg()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, flags, cfg, true, func(ctx context.Context, app *App) error {
				return serve(ctx, app)
			})
		},
	}
}

func serve(ctx context.Context, app *App) (returnErr error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("panic recovered: %v", r)
			returnErr = fmt.Errorf("panic: %v", r)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Library.Run(gctx)
	})
	g.Go(func() error {
		return api.Start(gctx, app.Config.APIAddress(), api.Options{
			Library:        app.Library,
			Notifications:  app.Notifications,
			AllowedOrigins: app.Config.AllowedOrigins(),
		})
	})
	g.Go(func() error {
		if err := app.Library.Startup(gctx); err != nil {
			return fmt.Errorf("error starting library: %w", err)
		}
		return nil
	})

	log.Info().Str("addr", app.Config.APIAddress()).Msg("library service started")
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err //nolint:wrapcheck // already wrapped by the failing member
	}
	log.Info().Msg("library service stopped")
	return nil
}

func newScanCmd(flags *globalFlags, getCfg configFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan launchers and game folders and rebuild the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, getCfg(), true, func(ctx context.Context, app *App) error {
				if err := app.Library.Load(ctx); err != nil {
					return err //nolint:wrapcheck // library errors are descriptive
				}
				res, err := app.Library.Scan(ctx)
				if err != nil {
					return err //nolint:wrapcheck // library errors are descriptive
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "scan %s: %d entries\n", res.RunID, res.Total)
				if len(res.Errors) > 0 {
					renderScanErrors(out, res.Errors)
				}
				return nil
			})
		},
	}
}

func newListCmd(flags *globalFlags, getCfg configFunc) *cobra.Command {
	var launcher string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, getCfg(), false, func(ctx context.Context, app *App) error {
				if err := app.Library.Load(ctx); err != nil {
					return err //nolint:wrapcheck // library errors are descriptive
				}
				renderEntries(cmd.OutOrStdout(), filterLauncher(app.Library.List(), launcher))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&launcher, "launcher", "", "only show entries for this launcher")
	return cmd
}

func newPrefetchCmd(flags *globalFlags, getCfg configFunc) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "prefetch",
		Short: "Look up missing artwork and metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("limit must be at least 0, got %d", limit)
			}
			return withApp(cmd.Context(), flags, getCfg(), true, func(ctx context.Context, app *App) error {
				if err := app.Library.Load(ctx); err != nil {
					return err //nolint:wrapcheck // library errors are descriptive
				}
				stats := app.Library.Prefetch(ctx, limit)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "queued %d, resolved %d, failed %d, skipped %d\n",
					stats.Queued, stats.Resolved, stats.Failed, stats.Skipped)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of entries to look up, 0 for all")
	return cmd
}

func newExportCmd(flags *globalFlags, getCfg configFunc) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as csv, json or yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !validFormat(format) {
				return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
			}
			return withApp(cmd.Context(), flags, getCfg(), false, func(ctx context.Context, app *App) error {
				if err := app.Library.Load(ctx); err != nil {
					return err //nolint:wrapcheck // library errors are descriptive
				}
				if output == "" {
					return writeExport(cmd.OutOrStdout(), format, app.Library.List())
				}
				f, err := os.Create(output) //nolint:gosec // user supplied output path
				if err != nil {
					return fmt.Errorf("error creating export file: %w", err)
				}
				if err := writeExport(f, format, app.Library.List()); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("error closing export file: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", FormatCSV, "csv, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	return cmd
}
