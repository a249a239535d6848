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

package giantbomb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "error": "OK",
  "status_code": 1,
  "number_of_total_results": 1,
  "results": [{
    "name": "Half-Life 2",
    "deck": "Gordon Freeman returns.",
    "original_release_date": "2004-11-16",
    "site_detail_url": "https://www.giantbomb.com/half-life-2/3030-2428/",
    "image": {"medium_url": "https://img.example/hl2_medium.jpg", "original_url": "https://img.example/hl2.jpg"}
  }]
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("secret", time.Second, WithBaseURL(srv.URL+"/api"))
}

func TestSearch(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "Half-Life 2", q.Get("query"))
		assert.Equal(t, "game", q.Get("resources"))
		assert.Equal(t, "1", q.Get("limit"))
		assert.Equal(t, "GameLauncher/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(sampleResponse))
	})

	info, err := c.Search(context.Background(), "Half-Life™  2")
	require.NoError(t, err)
	assert.Equal(t, &scraper.GameInfo{
		Name:        "Half-Life 2",
		ImageURL:    "https://img.example/hl2_medium.jpg",
		Description: "Gordon Freeman returns.",
		ReleaseDate: "2004-11-16",
		DetailURL:   "https://www.giantbomb.com/half-life-2/3030-2428/",
	}, info)
}

func TestSearchNoResults(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"OK","status_code":1,"results":[]}`))
	})

	_, err := c.Search(context.Background(), "nothing")
	assert.ErrorIs(t, err, scraper.ErrNoResults)
}

func TestSearchInvalidKeyInBody(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Invalid API Key","status_code":100,"results":[]}`))
	})

	_, err := c.Search(context.Background(), "x")
	assert.ErrorIs(t, err, scraper.ErrInvalidAPIKey)
}

func TestSearchHTTPErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		status  int
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: scraper.ErrInvalidAPIKey},
		{name: "too many requests", status: http.StatusTooManyRequests, wantErr: scraper.ErrRateLimited},
		{name: "velocity", status: 420, wantErr: scraper.ErrRateLimited},
		{name: "server error", status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := c.Search(context.Background(), "x")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSearchMissingImage(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status_code":1,"results":[{"name":"A"}]}`))
	})

	info, err := c.Search(context.Background(), "A")
	require.NoError(t, err)
	assert.Empty(t, info.ImageURL)
}

func TestSearchEmptyNameSkipsRequest(t *testing.T) {
	t.Parallel()

	called := false
	c := newTestServer(t, func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	})

	_, err := c.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, scraper.ErrNoResults)
	assert.False(t, called)
}
