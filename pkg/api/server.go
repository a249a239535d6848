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

// Package api serves the library to a presentation front end: JSON-RPC 2.0
// over HTTP POST and websocket, notifications on the websocket and
// artwork bytes over plain HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/api/methods"
	apimiddleware "github.com/ZaparooProject/zaparoo-library/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-library/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-library/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-library/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-library/pkg/service/library"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const (
	maxRequestBytes   = 1 << 20
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

var (
	JSONRPCErrorParseError = models.ErrorObject{
		Code:    -32700,
		Message: "Parse error",
	}
	JSONRPCErrorInvalidRequest = models.ErrorObject{
		Code:    -32600,
		Message: "Invalid Request",
	}
	JSONRPCErrorMethodNotFound = models.ErrorObject{
		Code:    -32601,
		Message: "Method not found",
	}
	JSONRPCErrorInvalidParams = models.ErrorObject{
		Code:    -32602,
		Message: "Invalid params",
	}
	JSONRPCErrorServerError = models.ErrorObject{
		Code:    -32000,
		Message: "Server error",
	}
	JSONRPCErrorNotFound = models.ErrorObject{
		Code:    -32001,
		Message: "Not found",
	}
)

var ErrMethodExists = errors.New("method already registered")

type MethodFunc func(requests.RequestEnv) (any, error)

// MethodMap is the registry of JSON-RPC methods. Names are matched case
// insensitively.
type MethodMap struct {
	methods map[string]MethodFunc
	mu      syncutil.RWMutex
}

// NewMethodMap returns a map with every library method registered.
func NewMethodMap() *MethodMap {
	m := &MethodMap{methods: make(map[string]MethodFunc)}
	defaults := map[string]MethodFunc{
		// entries
		models.MethodEntries:      methods.HandleEntries,
		models.MethodEntry:        methods.HandleEntry,
		models.MethodSelect:       methods.HandleSelect,
		models.MethodLaunch:       methods.HandleLaunch,
		models.MethodDelete:       methods.HandleDelete,
		models.MethodManualAdd:    methods.HandleManualAdd,
		models.MethodManualUpdate: methods.HandleManualUpdate,
		models.MethodImageReset:   methods.HandleImageReset,
		models.MethodFetch:        methods.HandleFetch,
		// catalog
		models.MethodScan:       methods.HandleScan,
		models.MethodPrefetch:   methods.HandlePrefetch,
		models.MethodScanErrors: methods.HandleScanErrors,
		// status
		models.MethodStatus: methods.HandleStatus,
	}
	for name, fn := range defaults {
		m.methods[name] = fn
	}
	return m
}

func (m *MethodMap) AddMethod(name string, fn MethodFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = strings.ToLower(name)
	if _, ok := m.methods[name]; ok {
		return fmt.Errorf("%w: %s", ErrMethodExists, name)
	}
	m.methods[name] = fn
	return nil
}

func (m *MethodMap) GetMethod(name string) (MethodFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.methods[strings.ToLower(name)]
	return fn, ok
}

// errorObject maps a method error to the JSON-RPC error sent to the client.
// Library errors keep their message so the UI can show it.
func errorObject(err error) models.ErrorObject {
	var ve *validation.Error
	switch {
	case errors.Is(err, validation.ErrMissingParams),
		errors.Is(err, validation.ErrInvalidParams),
		errors.Is(err, catalog.ErrInvalidEntry),
		errors.As(err, &ve):
		return models.ErrorObject{Code: JSONRPCErrorInvalidParams.Code, Message: err.Error()}
	case errors.Is(err, catalog.ErrEntryNotFound),
		errors.Is(err, library.ErrNoImage):
		return models.ErrorObject{Code: JSONRPCErrorNotFound.Code, Message: err.Error()}
	default:
		return models.ErrorObject{Code: JSONRPCErrorServerError.Code, Message: err.Error()}
	}
}

func marshalError(id models.RPCID, errObj models.ErrorObject) []byte {
	log.Debug().Int("code", errObj.Code).Str("message", errObj.Message).Msg("sending error")
	data, err := json.Marshal(models.ResponseErrorObject{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &errObj,
	})
	if err != nil {
		log.Error().Err(err).Msg("error marshalling error response")
		return nil
	}
	return data
}

// processRequest runs one JSON-RPC message and returns the response frame.
// Notifications, which carry no id, get no response.
func processRequest(mm *MethodMap, env requests.RequestEnv, msg []byte) []byte { //nolint:gocritic // env copied per request
	if !json.Valid(msg) {
		return marshalError(models.NullRPCID, JSONRPCErrorParseError)
	}

	var req models.RequestObject
	if err := json.Unmarshal(msg, &req); err != nil {
		log.Warn().Err(err).Msg("invalid request object")
		return marshalError(models.NullRPCID, JSONRPCErrorInvalidRequest)
	}

	id := models.NullRPCID
	if !req.ID.IsAbsent() {
		id = *req.ID
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		log.Warn().Str("jsonrpc", req.JSONRPC).Str("method", req.Method).Msg("invalid request")
		return marshalError(id, JSONRPCErrorInvalidRequest)
	}

	if req.ID.IsAbsent() {
		log.Debug().Str("method", req.Method).Msg("received notification, ignoring")
		return nil
	}

	fn, ok := mm.GetMethod(req.Method)
	if !ok {
		log.Warn().Str("method", req.Method).Msg("unknown method")
		return marshalError(id, JSONRPCErrorMethodNotFound)
	}

	log.Debug().Str("method", req.Method).Str("id", id.String()).Msg("received request")
	env.ID = id
	env.Params = req.Params
	result, err := fn(env)
	if err != nil {
		log.Warn().Err(err).Str("method", req.Method).Msg("method failed")
		return marshalError(id, errorObject(err))
	}

	data, err := json.Marshal(models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
	if err != nil {
		log.Error().Err(err).Msg("error marshalling response")
		return marshalError(id, JSONRPCErrorServerError)
	}
	return data
}

func isLocal(r *http.Request) bool {
	ip := apimiddleware.ParseRemoteIP(r.RemoteAddr)
	return ip != nil && ip.IsLoopback()
}

// handlePostRequest serves JSON-RPC over plain HTTP. JSON-RPC errors are
// still HTTP 200 with the error in the body.
func handlePostRequest(mm *MethodMap, lib requests.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
		if err != nil {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
			return
		}

		resp := processRequest(mm, requests.RequestEnv{
			Context: r.Context(),
			Library: lib,
			IsLocal: isLocal(r),
		}, body)
		if resp == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(resp); err != nil {
			log.Error().Err(err).Msg("error writing response")
		}
	}
}

func handleImage(lib requests.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "id is required", http.StatusBadRequest)
			return
		}

		data, err := lib.ImageBytes(r.Context(), id)
		switch {
		case errors.Is(err, catalog.ErrEntryNotFound), errors.Is(err, library.ErrNoImage):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case err != nil:
			log.Warn().Err(err).Str("unique", id).Msg("error reading image")
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", http.DetectContentType(data))
		if _, err := w.Write(data); err != nil {
			log.Error().Err(err).Msg("error writing image")
		}
	}
}

func handleWSMessage(
	ctx context.Context,
	mm *MethodMap,
	lib requests.Library,
) func(*melody.Session, []byte) {
	return func(session *melody.Session, msg []byte) {
		// heartbeat
		if bytes.Equal(msg, []byte("ping")) {
			if err := session.Write([]byte("pong")); err != nil {
				log.Error().Err(err).Msg("sending pong")
			}
			return
		}

		resp := processRequest(mm, requests.RequestEnv{
			Context: ctx,
			Library: lib,
			IsLocal: isLocal(session.Request),
		}, msg)
		if resp == nil {
			return
		}
		if err := session.Write(resp); err != nil {
			log.Error().Err(err).Msg("error sending response")
		}
	}
}

// broadcastNotifications forwards notifications to every websocket client.
// Broadcasts run in their own goroutine so a slow client never backs up
// the notification channel.
func broadcastNotifications(
	ctx context.Context,
	ms *melody.Melody,
	notifications <-chan models.Notification,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(models.NotificationObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}
			go func() {
				if err := ms.Broadcast(data); err != nil {
					log.Warn().Err(err).Msg("broadcasting notification")
				}
			}()
		}
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") {
			return true
		}
		return slices.ContainsFunc(allowed, func(o string) bool {
			return strings.EqualFold(o, origin)
		})
	}
}

type Options struct {
	Library        requests.Library
	Notifications  <-chan models.Notification
	Clock          clockwork.Clock
	Methods        *MethodMap
	AllowedOrigins []string
}

// NewRouter builds the HTTP handler and starts the goroutines serving
// notifications and rate limiter cleanup. Both stop when ctx is done.
//
//nolint:gocritic // options struct passed by value
func NewRouter(ctx context.Context, opts Options) http.Handler {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Methods == nil {
		opts.Methods = NewMethodMap()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	limiter := apimiddleware.NewIPRateLimiter(opts.Clock)
	limiter.StartCleanup(ctx)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(apimiddleware.HTTPRateLimitMiddleware(limiter))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	ms := melody.New()
	ms.Upgrader.CheckOrigin = originChecker(opts.AllowedOrigins)
	ms.HandleMessage(handleWSMessage(ctx, opts.Methods, opts.Library))
	go func() {
		<-ctx.Done()
		if err := ms.Close(); err != nil {
			log.Debug().Err(err).Msg("closing websocket sessions")
		}
	}()
	if opts.Notifications != nil {
		go broadcastNotifications(ctx, ms, opts.Notifications)
	}

	r.Post("/api", handlePostRequest(opts.Methods, opts.Library))
	r.Get("/api", func(w http.ResponseWriter, r *http.Request) {
		if err := ms.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})
	r.Get("/api/image", handleImage(opts.Library))

	return r
}

// Start serves the API on addr until ctx is done.
//
//nolint:gocritic // options struct passed by value
func Start(ctx context.Context, addr string, opts Options) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(ctx, opts),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error shutting down api server")
		}
	}()

	log.Info().Str("addr", addr).Msg("starting api server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}
