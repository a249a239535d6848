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

// Package giantbomb implements scraper.Provider against the GiantBomb
// search API.
package giantbomb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/scraper"
	"github.com/ZaparooProject/zaparoo-library/pkg/shared/httpclient"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	ProviderID     = "giantbomb"
	DefaultBaseURL = "https://www.giantbomb.com/api"
	userAgent      = "GameLauncher/1.0"

	// statusInvalidKey is the body level status_code for a bad api_key.
	statusInvalidKey = 100
	statusOK         = 1
)

type searchResponse struct {
	Error      string   `json:"error"`
	Results    []result `json:"results"`
	StatusCode int      `json:"status_code"`
}

type result struct {
	Image               *image `json:"image"`
	Name                string `json:"name"`
	Deck                string `json:"deck"`
	OriginalReleaseDate string `json:"original_release_date"`
	SiteDetailURL       string `json:"site_detail_url"`
}

type image struct {
	MediumURL   string `json:"medium_url"`
	OriginalURL string `json:"original_url"`
}

type Client struct {
	client  *httpclient.Client
	apiKey  string
	baseURL string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// New returns a client for apiKey. Requests time out after timeout and are
// throttled to one per second with a small burst.
func New(apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		client: httpclient.NewClient(timeout,
			httpclient.WithUserAgent(userAgent),
			httpclient.WithRateLimit(rate.Every(time.Second), 4),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (*Client) ID() string {
	return ProviderID
}

func (c *Client) buildSearchURL(name string) (string, error) {
	u, err := url.Parse(c.baseURL + "/search/")
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	params.Set("query", name)
	params.Set("resources", "game")
	params.Set("limit", "1")
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// Search returns the first game result for name.
func (c *Client) Search(ctx context.Context, name string) (*scraper.GameInfo, error) {
	query := scraper.NormalizeQuery(name)
	if query == "" {
		return nil, scraper.ErrNoResults
	}

	searchURL, err := c.buildSearchURL(query)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("query", query).Msg("giantbomb search request")

	resp, err := c.client.Get(ctx, searchURL)
	if err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) {
			return nil, handleHTTPError(se.Code)
		}
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close response body")
		}
	}()

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	switch body.StatusCode {
	case statusOK:
	case statusInvalidKey:
		return nil, scraper.ErrInvalidAPIKey
	default:
		return nil, fmt.Errorf("API error: %s (code %d)", body.Error, body.StatusCode)
	}

	if len(body.Results) == 0 {
		return nil, scraper.ErrNoResults
	}

	r := body.Results[0]
	info := &scraper.GameInfo{
		Name:        r.Name,
		Description: r.Deck,
		ReleaseDate: r.OriginalReleaseDate,
		DetailURL:   r.SiteDetailURL,
	}
	if r.Image != nil {
		info.ImageURL = r.Image.MediumURL
	}
	return info, nil
}

func handleHTTPError(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return scraper.ErrInvalidAPIKey
	case http.StatusTooManyRequests, 420:
		return scraper.ErrRateLimited
	case http.StatusNotFound:
		return scraper.ErrNoResults
	default:
		return fmt.Errorf("HTTP error: %d", code)
	}
}
