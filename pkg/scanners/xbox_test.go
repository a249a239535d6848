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
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var startAppsArgs = []string{"-NoProfile", "-Command", "Get-StartApps | ConvertTo-Json"}

func TestXboxScanner(t *testing.T) {
	t.Parallel()

	exec := &mocks.MockCommandExecutor{}
	exec.On("Output", mock.Anything, "powershell", startAppsArgs).Return([]byte(`[
		{"Name": "Halo Infinite", "AppID": "Microsoft.254428597CFE2_8wekyb3d8bbwe!App"},
		{"Name": "Calculator", "AppID": "Microsoft.WindowsCalculator_8wekyb3d8bbwe!App"},
		{"Name": "Forza Horizon 5", "AppID": "Microsoft.624F8B84B80_8wekyb3d8bbwe!Forza"},
		{"Name": "Minecraft Launcher", "AppID": ""}
	]`), nil)

	s := NewXboxScanner(exec, nil)
	assert.Equal(t, catalog.LauncherXbox, s.ID())

	entries, err := s.Scan(context.Background())
	require.NoError(t, err)

	want := []catalog.RawEntry{
		{
			Name: "Halo Infinite",
			Path: "explorer.exe",
			Args: `shell:AppsFolder\Microsoft.254428597CFE2_8wekyb3d8bbwe!App`,
		},
		{
			Name: "Forza Horizon 5",
			Path: "explorer.exe",
			Args: `shell:AppsFolder\Microsoft.624F8B84B80_8wekyb3d8bbwe!Forza`,
		},
	}
	assert.Equal(t, want, entries)
	exec.AssertExpectations(t)
}

func TestXboxScanner_SingleObjectAndKeywords(t *testing.T) {
	t.Parallel()

	exec := &mocks.MockCommandExecutor{}
	exec.On("Output", mock.Anything, "powershell", startAppsArgs).
		Return([]byte(`{"Name": "Hollow Knight", "AppID": "Team.HK!App"}`), nil)

	entries, err := NewXboxScanner(exec, []string{"HOLLOW"}).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Hollow Knight", entries[0].Name)
}

func TestXboxScanner_CommandFails(t *testing.T) {
	t.Parallel()

	exec := &mocks.MockCommandExecutor{}
	exec.On("Output", mock.Anything, "powershell", startAppsArgs).
		Return(nil, errors.New("powershell not found"))

	_, err := NewXboxScanner(exec, nil).Scan(context.Background())
	require.Error(t, err)
}

func TestParseStartApps_Empty(t *testing.T) {
	t.Parallel()

	apps, err := parseStartApps([]byte("  \r\n"))
	require.NoError(t, err)
	assert.Empty(t, apps)

	_, err = parseStartApps([]byte("[{"))
	require.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.CfgEnv, "")

	toml := `config_schema = 1

[launchers]
disabled = ["gog galaxy"]

[[launchers.default]]
launcher = "Steam"
install_dir = '` + filepath.Join(dir, "steam") + `'

[[launchers.default]]
launcher = "Epic Games"
install_dir = '` + filepath.Join(dir, "epic") + `'

[[launchers.default]]
launcher = "Ubisoft Connect"
install_dir = '` + filepath.Join(dir, "ubi") + `'

[[launchers.default]]
launcher = "Origin"
install_dir = '` + filepath.Join(dir, "origin") + `'

[[launchers.default]]
launcher = "Xbox"
keywords = ["halo"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.CfgFile), []byte(toml), 0o600))

	cfg, err := config.NewConfig(dir, config.BaseDefaults)
	require.NoError(t, err)

	found := FromConfig(cfg, &mocks.MockCommandExecutor{})
	ids := make([]string, 0, len(found))
	for _, s := range found {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{
		catalog.LauncherSteam,
		catalog.LauncherEpic,
		catalog.LauncherUbisoft,
		catalog.LauncherOrigin,
		catalog.LauncherXbox,
	}, ids)

	xbox, ok := found[len(found)-1].(*XboxScanner)
	require.True(t, ok)
	assert.Equal(t, []string{"halo"}, xbox.keywords)
}
