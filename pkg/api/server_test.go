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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-library/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/database/jsonstore"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/library"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/monitor"
	"github.com/ZaparooProject/zaparoo-library/pkg/testing/mocks"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noProcesses struct{}

func (noProcesses) Names(context.Context) ([]string, error) { return nil, nil }

type testServer struct {
	lib     *library.Library
	fs      afero.Fs
	ns      chan models.Notification
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	fs := afero.NewMemMapFs()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	ns := make(chan models.Notification, 100)

	lib := library.New(ctx, library.Options{
		Store:         jsonstore.New(fs, "/data"),
		Executor:      &mocks.MockCommandExecutor{},
		Fs:            fs,
		Clock:         clock,
		Notifications: ns,
		Monitor:       monitor.Options{Lister: noProcesses{}},
	})
	t.Cleanup(func() {
		cancel()
		lib.Wait()
	})

	handler := NewRouter(ctx, Options{
		Library:       lib,
		Notifications: ns,
		Clock:         clock,
	})
	return &testServer{lib: lib, fs: fs, ns: ns, handler: handler}
}

func (s *testServer) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

type rawResponse struct {
	Result json.RawMessage     `json:"result"`
	Error  *models.ErrorObject `json:"error"`
	ID     json.RawMessage     `json:"id"`
}

func decode(t *testing.T, data []byte) rawResponse {
	t.Helper()
	var resp rawResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestMethodMap_AddMethod(t *testing.T) {
	t.Parallel()

	mm := NewMethodMap()
	_, ok := mm.GetMethod("ENTRIES")
	assert.True(t, ok, "lookups ignore case")

	err := mm.AddMethod(models.MethodEntries, func(requests.RequestEnv) (any, error) { return nil, nil })
	require.ErrorIs(t, err, ErrMethodExists)

	require.NoError(t, mm.AddMethod("test.echo", func(requests.RequestEnv) (any, error) {
		return "echo", nil
	}))
	_, ok = mm.GetMethod("test.echo")
	assert.True(t, ok)
}

func TestProcessRequest(t *testing.T) {
	t.Parallel()

	mm := NewMethodMap()
	require.NoError(t, mm.AddMethod("test.echo", func(env requests.RequestEnv) (any, error) {
		return json.RawMessage(env.Params), nil
	}))
	require.NoError(t, mm.AddMethod("test.missing", func(requests.RequestEnv) (any, error) {
		return nil, catalog.ErrEntryNotFound
	}))
	require.NoError(t, mm.AddMethod("test.fail", func(requests.RequestEnv) (any, error) {
		return nil, errors.New("boom")
	}))

	tests := []struct {
		name     string
		msg      string
		wantID   string
		wantCode int
		wantNil  bool
	}{
		{name: "parse error", msg: `{bad`, wantID: `null`, wantCode: -32700},
		{name: "wrong version", msg: `{"jsonrpc":"1.0","id":1,"method":"test.echo"}`, wantID: `1`, wantCode: -32600},
		{name: "object id", msg: `{"jsonrpc":"2.0","id":{},"method":"test.echo"}`, wantID: `null`, wantCode: -32600},
		{name: "unknown method", msg: `{"jsonrpc":"2.0","id":"a","method":"nope"}`, wantID: `"a"`, wantCode: -32601},
		{name: "notification", msg: `{"jsonrpc":"2.0","method":"test.echo"}`, wantNil: true},
		{name: "not found", msg: `{"jsonrpc":"2.0","id":2,"method":"test.missing"}`, wantID: `2`, wantCode: -32001},
		{name: "server error", msg: `{"jsonrpc":"2.0","id":3,"method":"test.fail"}`, wantID: `3`, wantCode: -32000},
		{name: "success", msg: `{"jsonrpc":"2.0","id":"x","method":"test.echo","params":{"a":1}}`, wantID: `"x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := processRequest(mm, requests.RequestEnv{Context: context.Background()}, []byte(tt.msg))
			if tt.wantNil {
				assert.Nil(t, out)
				return
			}
			resp := decode(t, out)
			assert.JSONEq(t, tt.wantID, string(resp.ID))
			if tt.wantCode == 0 {
				assert.Nil(t, resp.Error)
				assert.JSONEq(t, `{"a":1}`, string(resp.Result))
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestHandlePostRequest_ManualLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rr := s.post(t, `{"jsonrpc":"2.0","id":1,"method":"entries.manual.add",`+
		`"params":{"name":"Doom","path":"/games/doom/doom.exe"}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode(t, rr.Body.Bytes())
	require.Nil(t, resp.Error)
	var added catalog.Entry
	require.NoError(t, json.Unmarshal(resp.Result, &added))
	assert.Equal(t, "Doom", added.Name)

	rr = s.post(t, `{"jsonrpc":"2.0","id":2,"method":"entries"}`)
	resp = decode(t, rr.Body.Bytes())
	var list models.EntriesResponse
	require.NoError(t, json.Unmarshal(resp.Result, &list))
	assert.Equal(t, 1, list.Total)

	rr = s.post(t, `{"jsonrpc":"2.0","id":3,"method":"entries.delete","params":{"id":`+
		string(mustJSON(t, added.UniqueID))+`}}`)
	resp = decode(t, rr.Body.Bytes())
	require.Nil(t, resp.Error)
	assert.Empty(t, s.lib.List())
}

func TestHandlePostRequest_InvalidParams(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rr := s.post(t, `{"jsonrpc":"2.0","id":1,"method":"entries.manual.add","params":{"name":"Doom"}}`)
	require.Equal(t, http.StatusOK, rr.Code, "JSON-RPC errors are returned in the body")
	resp := decode(t, rr.Body.Bytes())
	require.NotNil(t, resp.Error)
	assert.Equal(t, JSONRPCErrorInvalidParams.Code, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "path is required")
}

func TestHandlePostRequest_Notification(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rr := s.post(t, `{"jsonrpc":"2.0","method":"status"}`)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestHandleImage(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	png := []byte("\x89PNG\r\n\x1a\n0000")
	require.NoError(t, afero.WriteFile(s.fs, "/art/doom.png", png, 0o644))

	e, err := s.lib.AddManual(context.Background(), catalog.ManualFields{
		Name:  "Doom",
		Path:  "/games/doom/doom.exe",
		Image: "/art/doom.png",
	})
	require.NoError(t, err)
	bare, err := s.lib.AddManual(context.Background(), catalog.ManualFields{
		Name: "Quake",
		Path: "/games/quake/quake.exe",
	})
	require.NoError(t, err)

	get := func(id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/image?id="+id, http.NoBody)
		rr := httptest.NewRecorder()
		s.handler.ServeHTTP(rr, req)
		return rr
	}

	rr := get("")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = get("missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = get(bare.UniqueID)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = get(e.UniqueID)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, png, rr.Body.Bytes())
}

func TestWebsocket_PingRequestsAndNotifications(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(msg))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"jsonrpc":"2.0","id":"s1","method":"status"}`)))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	status := decode(t, msg)
	assert.JSONEq(t, `"s1"`, string(status.ID))
	assert.JSONEq(t, `{"unique":"","status":""}`, string(status.Result))

	s.ns <- models.Notification{
		Method: models.NotificationCatalogUpdated,
		Params: json.RawMessage(`{"total":3}`),
	}
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	var notif models.NotificationObject
	require.NoError(t, json.Unmarshal(msg, &notif))
	assert.Equal(t, "2.0", notif.JSONRPC)
	assert.Equal(t, models.NotificationCatalogUpdated, notif.Method)
	assert.JSONEq(t, `{"total":3}`, string(notif.Params))
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	check := originChecker([]string{"https://ui.example"})
	req := httptest.NewRequest(http.MethodGet, "/api", http.NoBody)
	assert.True(t, check(req), "no origin header")

	req.Header.Set("Origin", "https://UI.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
