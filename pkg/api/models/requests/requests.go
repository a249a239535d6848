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

package requests

import (
	"context"
	"encoding/json"

	"github.com/ZaparooProject/zaparoo-library/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/library"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/monitor"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/prefetch"
)

// Library is the part of the library service the API methods call.
type Library interface {
	List() []catalog.Entry
	Get(id string) (catalog.Entry, error)
	Select(id string) (catalog.Entry, error)
	Launch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	AddManual(ctx context.Context, f catalog.ManualFields) (catalog.Entry, error)
	EditManual(ctx context.Context, id string, f catalog.ManualFields) (catalog.Entry, error)
	ResetImage(ctx context.Context, id string) error
	RequestFetch(id string, kind catalog.FetchKind) error
	Scan(ctx context.Context) (library.ScanResult, error)
	Prefetch(ctx context.Context, limit int) prefetch.Stats
	ErrorLog() []catalog.ScanError
	Status() (string, monitor.Status)
	ImageBytes(ctx context.Context, id string) ([]byte, error)
}

var _ Library = (*library.Library)(nil)

type RequestEnv struct {
	Context context.Context
	Library Library
	Params  json.RawMessage
	ID      models.RPCID
	IsLocal bool
}
