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
	"fmt"

	"github.com/ZaparooProject/zaparoo-library/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-library/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-library/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/rs/zerolog/log"
)

func HandleScan(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received scan request")
	res, err := env.Library.Scan(env.Context)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return models.ScanResponse{RunID: res.RunID, Errors: res.Errors, Total: res.Total}, nil
}

// HandlePrefetch runs a batch lookup pass. Params are optional; a zero
// limit covers the whole catalog.
func HandlePrefetch(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.PrefetchParams
	if len(env.Params) > 0 {
		if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
			return nil, err
		}
	}
	stats := env.Library.Prefetch(env.Context, params.Limit)
	return models.PrefetchResponse{
		Queued:   stats.Queued,
		Resolved: stats.Resolved,
		Failed:   stats.Failed,
		Skipped:  stats.Skipped,
	}, nil
}

func HandleScanErrors(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	errs := env.Library.ErrorLog()
	if errs == nil {
		errs = []catalog.ScanError{}
	}
	return models.ScanErrorsResponse{Errors: errs}, nil
}

func HandleStatus(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	id, status := env.Library.Status()
	return models.StatusResponse{UniqueID: id, Status: string(status)}, nil
}
