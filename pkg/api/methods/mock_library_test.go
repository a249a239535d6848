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

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/library"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/monitor"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/prefetch"
	"github.com/stretchr/testify/mock"
)

// mockLibrary is a testify mock of requests.Library.
type mockLibrary struct {
	mock.Mock
}

func (m *mockLibrary) List() []catalog.Entry {
	args := m.Called()
	entries, _ := args.Get(0).([]catalog.Entry)
	return entries
}

func (m *mockLibrary) Get(id string) (catalog.Entry, error) {
	args := m.Called(id)
	e, _ := args.Get(0).(catalog.Entry)
	//nolint:wrapcheck // mock returns are wrapped by the caller
	return e, args.Error(1)
}

func (m *mockLibrary) Select(id string) (catalog.Entry, error) {
	args := m.Called(id)
	e, _ := args.Get(0).(catalog.Entry)
	//nolint:wrapcheck // mock returns are wrapped by the caller
	return e, args.Error(1)
}

func (m *mockLibrary) Launch(ctx context.Context, id string) error {
	//nolint:wrapcheck // mock returns are wrapped by the caller
	return m.Called(ctx, id).Error(0)
}

func (m *mockLibrary) Delete(ctx context.Context, id string) error {
	//nolint:wrapcheck // mock returns are wrapped by the caller
	return m.Called(ctx, id).Error(0)
}

func (m *mockLibrary) AddManual(ctx context.Context, f catalog.ManualFields) (catalog.Entry, error) {
	args := m.Called(ctx, f)
	e, _ := args.Get(0).(catalog.Entry)
	//nolint:wrapcheck // mock returns are wrapped by the caller
	return e, args.Error(1)
}

func (m *mockLibrary) EditManual(ctx context.Context, id string, f catalog.ManualFields) (catalog.Entry, error) {
	args := m.Called(ctx, id, f)
	e, _ := args.Get(0).(catalog.Entry)
	//nolint:wrapcheck // mock returns are wrapped by the caller
	return e, args.Error(1)
}

func (m *mockLibrary) ResetImage(ctx context.Context, id string) error {
	//nolint:wrapcheck // mock returns are wrapped by the caller
	return m.Called(ctx, id).Error(0)
}

func (m *mockLibrary) RequestFetch(id string, kind catalog.FetchKind) error {
	//nolint:wrapcheck // mock returns are wrapped by the caller
	return m.Called(id, kind).Error(0)
}

func (m *mockLibrary) Scan(ctx context.Context) (library.ScanResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(library.ScanResult)
	//nolint:wrapcheck // mock returns are wrapped by the caller
	return res, args.Error(1)
}

func (m *mockLibrary) Prefetch(ctx context.Context, limit int) prefetch.Stats {
	args := m.Called(ctx, limit)
	stats, _ := args.Get(0).(prefetch.Stats)
	return stats
}

func (m *mockLibrary) ErrorLog() []catalog.ScanError {
	args := m.Called()
	errs, _ := args.Get(0).([]catalog.ScanError)
	return errs
}

func (m *mockLibrary) Status() (string, monitor.Status) {
	args := m.Called()
	s, _ := args.Get(1).(monitor.Status)
	return args.String(0), s
}

func (m *mockLibrary) ImageBytes(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).([]byte)
	//nolint:wrapcheck // mock returns are wrapped by the caller
	return b, args.Error(1)
}
