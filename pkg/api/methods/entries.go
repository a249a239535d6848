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

// Package methods holds the JSON-RPC method handlers of the presentation
// API.
package methods

import (
	"fmt"

	"github.com/ZaparooProject/zaparoo-library/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-library/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-library/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/rs/zerolog/log"
)

func HandleEntries(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	entries := env.Library.List()
	return models.EntriesResponse{Entries: entries, Total: len(entries)}, nil
}

func HandleEntry(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.IDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	e, err := env.Library.Get(params.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return e, nil
}

func HandleSelect(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.IDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	e, err := env.Library.Select(params.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entry: %w", err)
	}
	_, status := env.Library.Status()
	return models.SelectResponse{Entry: e, Status: string(status)}, nil
}

func HandleLaunch(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.IDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	log.Info().Str("unique", params.ID).Msg("launch requested")
	if err := env.Library.Launch(env.Context, params.ID); err != nil {
		return nil, fmt.Errorf("failed to launch: %w", err)
	}
	return nil, nil
}

func HandleDelete(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.IDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	if err := env.Library.Delete(env.Context, params.ID); err != nil {
		return nil, fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil, nil
}

func HandleManualAdd(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params catalog.ManualFields
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	e, err := env.Library.AddManual(env.Context, params)
	if err != nil {
		return nil, fmt.Errorf("failed to add manual entry: %w", err)
	}
	return e, nil
}

func HandleManualUpdate(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.ManualUpdateParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	e, err := env.Library.EditManual(env.Context, params.ID, params.ManualFields)
	if err != nil {
		return nil, fmt.Errorf("failed to update manual entry: %w", err)
	}
	return e, nil
}

func HandleImageReset(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.IDParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	if err := env.Library.ResetImage(env.Context, params.ID); err != nil {
		return nil, fmt.Errorf("failed to reset image: %w", err)
	}
	return nil, nil
}

// HandleFetch starts an on-demand lookup. The result arrives later as an
// entry.updated notification.
func HandleFetch(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.FetchParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	if err := env.Library.RequestFetch(params.ID, catalog.FetchKind(params.Kind)); err != nil {
		return nil, fmt.Errorf("failed to start fetch: %w", err)
	}
	return nil, nil
}
