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

// Package httpclient is the shared HTTP client for metadata lookups and
// artwork downloads.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 5 * time.Second
	DefaultUserAgent = "ZaparooLibrary/1.0"

	// MaxImageBytes caps a single artwork download.
	MaxImageBytes = 20 << 20
)

var ErrTooLarge = errors.New("response body too large")

// StatusError is returned for any non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// Transport sets the User-Agent header and optionally throttles outgoing
// requests.
type Transport struct {
	Base      http.RoundTripper
	Limiter   *rate.Limiter
	UserAgent string
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = DefaultTransport
	}

	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	ua := t.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", ua)

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform HTTP round trip: %w", err)
	}
	return resp, nil
}

// DefaultTransport is shared by all clients for connection pooling.
var DefaultTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	TLSHandshakeTimeout: 10 * time.Second,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// Client wraps http.Client with a whole-request timeout.
type Client struct {
	*http.Client
}

type Option func(*Transport)

// WithRateLimit allows at most r requests per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(t *Transport) {
		t.Limiter = rate.NewLimiter(r, burst)
	}
}

func WithUserAgent(ua string) Option {
	return func(t *Transport) {
		t.UserAgent = ua
	}
}

// WithBaseTransport replaces the underlying round tripper, mostly for tests.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(t *Transport) {
		t.Base = rt
	}
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tr := &Transport{Base: DefaultTransport}
	for _, opt := range opts {
		opt(tr)
	}
	return &Client{
		Client: &http.Client{
			Transport: tr,
			Timeout:   timeout,
		},
	}
}

// Get performs a GET and returns the response when the status is 200. The
// caller must close the body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error getting url: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeBody(resp)
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return resp, nil
}

// Fetch downloads url into memory, failing if the body exceeds maxBytes.
func (c *Client) Fetch(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

type DownloadFileArgs struct {
	Fs         afero.Fs
	URL        string
	OutputPath string
}

// DownloadFile writes url to a temp file next to OutputPath and renames it
// into place once the full body has been received.
func (c *Client) DownloadFile(ctx context.Context, args DownloadFileArgs) error {
	resp, err := c.Get(ctx, args.URL)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	fs := args.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if err := fs.MkdirAll(filepath.Dir(args.OutputPath), 0o750); err != nil {
		return fmt.Errorf("error creating output dir: %w", err)
	}

	tmp, err := afero.TempFile(fs, filepath.Dir(args.OutputPath), ".download-*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		if closeErr := tmp.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msgf("error closing file: %s", tmpPath)
		}
		if removeErr := fs.Remove(tmpPath); removeErr != nil {
			log.Warn().Err(removeErr).Msgf("error removing partial download: %s", tmpPath)
		}
	}

	written, err := io.Copy(tmp, io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		cleanup()
		return fmt.Errorf("error downloading file: %w", err)
	}
	if written > MaxImageBytes {
		cleanup()
		return ErrTooLarge
	}
	if expected := resp.ContentLength; expected > 0 && written != expected {
		cleanup()
		return fmt.Errorf("download incomplete: expected %d bytes, got %d", expected, written)
	}

	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("error closing file: %w", err)
	}

	if err := fs.Rename(tmpPath, args.OutputPath); err != nil {
		if removeErr := fs.Remove(tmpPath); removeErr != nil {
			log.Warn().Err(removeErr).Msgf("error removing temp file: %s", tmpPath)
		}
		return fmt.Errorf("error renaming temp file: %w", err)
	}

	return nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing response body")
	}
}
