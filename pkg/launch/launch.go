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

// Package launch starts games according to their launcher.
package launch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/command"
	"github.com/rs/zerolog/log"
)

const (
	steamURLPrefix = "steam://rungameid/"
	epicURLFormat  = "com.epicgames.launcher://apps/%s?action=launch&silent=true"
)

var ErrNoPath = errors.New("entry has no path")

type Launcher struct {
	exec command.Executor
	goos string
}

func New(exec command.Executor) *Launcher {
	return &Launcher{exec: exec, goos: runtime.GOOS}
}

// SteamURL returns the protocol URL that asks Steam to start appID.
func SteamURL(appID string) string {
	return steamURLPrefix + appID
}

// EpicURL returns the protocol URL that asks the Epic launcher to start
// appID without showing its window.
func EpicURL(appID string) string {
	return fmt.Sprintf(epicURLFormat, appID)
}

// Launch starts e. Steam and Epic games with an app id go through the
// launcher's URL handler, Xbox apps through explorer, and everything else
// runs Path from its own directory. The started process is not tied to ctx.
func (l *Launcher) Launch(ctx context.Context, e *catalog.Entry) error {
	err := l.launch(ctx, e)
	if err != nil {
		log.Error().Err(err).
			Str("unique", e.UniqueID).
			Str("launcher", e.Launcher).
			Msg("launch failed")
		return &catalog.LaunchError{Err: err, Launcher: e.Launcher, Path: e.Path}
	}
	log.Info().Str("unique", e.UniqueID).Str("name", e.Name).Msg("launched game")
	return nil
}

func (l *Launcher) launch(ctx context.Context, e *catalog.Entry) error {
	switch {
	case e.Launcher == catalog.LauncherSteam && e.AppID != "":
		return l.openURL(ctx, SteamURL(e.AppID))
	case e.Launcher == catalog.LauncherEpic && e.AppID != "":
		return l.openURL(ctx, EpicURL(e.AppID))
	case e.Launcher == catalog.LauncherXbox && e.Args != "":
		//nolint:wrapcheck // wrapped as LaunchError by the caller
		return l.exec.Start(ctx, "explorer.exe", e.Args)
	}

	if e.Path == "" {
		return ErrNoPath
	}
	opts := command.StartOptions{Dir: filepath.Dir(e.Path)}
	//nolint:wrapcheck // wrapped as LaunchError by the caller
	return l.exec.StartWithOptions(ctx, opts, e.Path, strings.Fields(e.Args)...)
}

func (l *Launcher) openURL(ctx context.Context, url string) error {
	//nolint:wrapcheck // wrapped as LaunchError by the caller
	switch l.goos {
	case "windows":
		return l.exec.Start(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return l.exec.Start(ctx, "open", url)
	default:
		return l.exec.Start(ctx, "xdg-open", url)
	}
}
