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

package scanners

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/command"
)

const (
	XboxLaunchPath   = "explorer.exe"
	XboxAppsFolderFn = `shell:AppsFolder\`
)

// DefaultXboxKeywords select which Start menu apps count as games.
var DefaultXboxKeywords = []string{
	"halo", "forza", "minecraft", "gears", "sea of thieves",
	"destiny", "witcher", "assassin", "battlefield", "cod", "persona", "no man's sky",
}

type startApp struct {
	Name  string `json:"Name"`
	AppID string `json:"AppID"`
}

// XboxScanner lists Store apps via PowerShell's Get-StartApps and keeps the
// ones whose name contains a keyword.
type XboxScanner struct {
	exec     command.Executor
	keywords []string
}

func NewXboxScanner(exec command.Executor, keywords []string) *XboxScanner {
	if len(keywords) == 0 {
		keywords = DefaultXboxKeywords
	}
	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(k)
	}
	return &XboxScanner{exec: exec, keywords: lower}
}

func (*XboxScanner) ID() string {
	return catalog.LauncherXbox
}

func (s *XboxScanner) Scan(ctx context.Context) ([]catalog.RawEntry, error) {
	out, err := s.exec.Output(ctx, "powershell", "-NoProfile", "-Command", "Get-StartApps | ConvertTo-Json")
	if err != nil {
		return nil, fmt.Errorf("listing start apps: %w", err)
	}

	apps, err := parseStartApps(out)
	if err != nil {
		return nil, err
	}

	var entries []catalog.RawEntry
	for _, app := range apps {
		if app.AppID == "" || !s.isGame(app.Name) {
			continue
		}
		entries = append(entries, catalog.RawEntry{
			Name: app.Name,
			Path: XboxLaunchPath,
			Args: XboxAppsFolderFn + app.AppID,
		})
	}
	return entries, nil
}

func (s *XboxScanner) isGame(name string) bool {
	lower := strings.ToLower(name)
	for _, k := range s.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// parseStartApps accepts either a JSON array or, when only one app exists,
// a single object.
func parseStartApps(out []byte) ([]startApp, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var app startApp
		if err := json.Unmarshal(trimmed, &app); err != nil {
			return nil, fmt.Errorf("parsing start apps: %w", err)
		}
		return []startApp{app}, nil
	}
	var apps []startApp
	if err := json.Unmarshal(trimmed, &apps); err != nil {
		return nil, fmt.Errorf("parsing start apps: %w", err)
	}
	return apps, nil
}
