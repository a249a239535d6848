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

package methods

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ZaparooProject/zaparoo-library/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-library/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-library/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/library"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/monitor"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/prefetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newEnv(lib requests.Library, params string) requests.RequestEnv {
	env := requests.RequestEnv{
		Context: context.Background(),
		Library: lib,
	}
	if params != "" {
		env.Params = json.RawMessage(params)
	}
	return env
}

func TestHandleEntries(t *testing.T) {
	t.Parallel()

	lib := &mockLibrary{}
	lib.On("List").Return([]catalog.Entry{{UniqueID: "Steam/a"}, {UniqueID: "Steam/b"}})

	res, err := HandleEntries(newEnv(lib, ""))
	require.NoError(t, err)
	resp, ok := res.(models.EntriesResponse)
	require.True(t, ok)
	assert.Equal(t, 2, resp.Total)
	lib.AssertExpectations(t)
}

func TestHandleEntry_MissingID(t *testing.T) {
	t.Parallel()

	lib := &mockLibrary{}
	_, err := HandleEntry(newEnv(lib, ""))
	require.ErrorIs(t, err, validation.ErrMissingParams)

	_, err = HandleEntry(newEnv(lib, `{}`))
	var ve *validation.Error
	require.ErrorAs(t, err, &ve)
	lib.AssertNotCalled(t, "Get", mock.Anything)
}

func TestHandleEntry_NotFound(t *testing.T) {
	t.Parallel()

	lib := &mockLibrary{}
	lib.On("Get", "Steam/x").Return(catalog.Entry{}, catalog.ErrEntryNotFound)

	_, err := HandleEntry(newEnv(lib, `{"id":"Steam/x"}`))
	require.ErrorIs(t, err, catalog.ErrEntryNotFound)
}

func TestHandleSelect(t *testing.T) {
	t.Parallel()

	lib := &mockLibrary{}
	lib.On("Select", "Steam/a").Return(catalog.Entry{UniqueID: "Steam/a"}, nil)
	lib.On("Status").Return("Steam/a", monitor.StatusLaunching)

	res, err := HandleSelect(newEnv(lib, `{"id":"Steam/a"}`))
	require.NoError(t, err)
	assert.Equal(t, models.SelectResponse{
		Entry:  catalog.Entry{UniqueID: "Steam/a"},
		Status: string(monitor.StatusLaunching),
	}, res)
}

func TestHandleLaunch_Error(t *testing.T) {
	t.Parallel()

	lib := &mockLibrary{}
	launchErr := &catalog.LaunchError{Launcher: "Steam", Err: errors.New("no steam")}
	lib.On("Launch", mock.Anything, "Steam/a").Return(launchErr)

	_, err := HandleLaunch(newEnv(lib, `{"id":"Steam/a"}`))
	var le *catalog.LaunchError
	require.ErrorAs(t, err, &le)
}

func TestHandleManualAdd_ValidatesBody(t *testing.T) {
	t.Parallel()

	lib := &mockLibrary{}
	_, err := HandleManualAdd(newEnv(lib, `{"name":"Doom"}`))
	var ve *validation.Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "path is required", ve.Error())

	fields := catalog.ManualFields{Name: "Doom", Path: "/games/doom"}
	lib.On("AddManual", mock.Anything, fields).Return(catalog.Entry{UniqueID: "/games/doom"}, nil)
	res, err := HandleManualAdd(newEnv(lib, `{"name":"Doom","path":"/games/doom"}`))
	require.NoError(t, err)
	assert.Equal(t, catalog.Entry{UniqueID: "/games/doom"}, res)
}

func TestHandleManualUpdate(t *testing.T) {
	t.Parallel()

	lib := &mockLibrary{}
	fields := catalog.ManualFields{Name: "Doom II", Path: "/games/doom2"}
	lib.On("EditManual", mock.Anything, "/games/doom", fields).
		Return(catalog.Entry{UniqueID: "/games/doom2"}, nil)

	_, err := HandleManualUpdate(newEnv(lib, `{"id":"/games/doom","name":"Doom II","path":"/games/doom2"}`))
	require.NoError(t, err)
	lib.AssertExpectations(t)
}

func TestHandleFetch_Kind(t *testing.T) {
	t.Parallel()

	lib := &mockLibrary{}
	lib.On("RequestFetch", "Steam/a", catalog.FetchInfo).Return(nil)

	_, err := HandleFetch(newEnv(lib, `{"id":"Steam/a","kind":"info"}`))
	require.NoError(t, err)

	_, err = HandleFetch(newEnv(lib, `{"id":"Steam/a","kind":"video"}`))
	var ve *validation.Error
	require.ErrorAs(t, err, &ve)
	lib.AssertNumberOfCalls(t, "RequestFetch", 1)
}

func TestHandleScan(t *testing.T) {
	t.Parallel()

	lib := &mockLibrary{}
	lib.On("Scan", mock.Anything).Return(library.ScanResult{RunID: "r1", Total: 3}, nil)

	res, err := HandleScan(newEnv(lib, ""))
	require.NoError(t, err)
	assert.Equal(t, models.ScanResponse{RunID: "r1", Total: 3}, res)
}

func TestHandlePrefetch_OptionalParams(t *testing.T) {
	t.Parallel()

	lib := &mockLibrary{}
	lib.On("Prefetch", mock.Anything, 0).Return(prefetch.Stats{Queued: 3, Resolved: 1, Failed: 1, Skipped: 1})
	lib.On("Prefetch", mock.Anything, 5).Return(prefetch.Stats{Queued: 5})

	res, err := HandlePrefetch(newEnv(lib, ""))
	require.NoError(t, err)
	assert.Equal(t, models.PrefetchResponse{Queued: 3, Resolved: 1, Failed: 1, Skipped: 1}, res)

	res, err = HandlePrefetch(newEnv(lib, `{"limit":5}`))
	require.NoError(t, err)
	assert.Equal(t, models.PrefetchResponse{Queued: 5}, res)

	_, err = HandlePrefetch(newEnv(lib, `{"limit":-1}`))
	var ve *validation.Error
	require.ErrorAs(t, err, &ve)
}

func TestHandleScanErrors_NeverNull(t *testing.T) {
	t.Parallel()

	lib := &mockLibrary{}
	lib.On("ErrorLog").Return(nil)

	res, err := HandleScanErrors(newEnv(lib, ""))
	require.NoError(t, err)
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"errors":[]}`, string(data))
}

func TestHandleStatus(t *testing.T) {
	t.Parallel()

	lib := &mockLibrary{}
	lib.On("Status").Return("Xbox/halo", monitor.StatusRunning)

	res, err := HandleStatus(newEnv(lib, ""))
	require.NoError(t, err)
	assert.Equal(t, models.StatusResponse{UniqueID: "Xbox/halo", Status: "running"}, res)
}
