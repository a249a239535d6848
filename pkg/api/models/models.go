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

package models

import (
	"encoding/json"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
)

const (
	MethodEntries      = "entries"
	MethodEntry        = "entries.get"
	MethodSelect       = "entries.select"
	MethodLaunch       = "entries.launch"
	MethodDelete       = "entries.delete"
	MethodManualAdd    = "entries.manual.add"
	MethodManualUpdate = "entries.manual.update"
	MethodImageReset   = "entries.image.reset"
	MethodFetch        = "entries.fetch"
	MethodScan         = "catalog.scan"
	MethodPrefetch     = "catalog.prefetch"
	MethodScanErrors   = "catalog.errors"
	MethodStatus       = "status"
)

const (
	NotificationCatalogUpdated = "catalog.updated"
	NotificationEntryUpdated   = "entry.updated"
	NotificationStatusChanged  = "status.changed"
	NotificationScanCompleted  = "scan.completed"
)

// Notification is an event pushed to every connected websocket client.
type Notification struct {
	Method string
	Params json.RawMessage
}

// NotificationObject is the JSON-RPC 2.0 notification frame sent on the
// websocket.
type NotificationObject struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type RequestObject struct {
	ID      *RPCID          `json:"id,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type ErrorObject struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ResponseObject struct {
	Result  any          `json:"result"`
	Error   *ErrorObject `json:"error,omitempty"`
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
}

// ResponseErrorObject is sent for errors so the result field is left out
// entirely, while ResponseObject still sends null results.
type ResponseErrorObject struct {
	Error   *ErrorObject `json:"error"`
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
}

type CatalogUpdatedParams struct {
	Total int `json:"total"`
}

type StatusChangedParams struct {
	UniqueID string `json:"unique"`
	Status   string `json:"status"`
}

type ScanCompletedParams struct {
	RunID  string              `json:"runId"`
	Errors []catalog.ScanError `json:"errors"`
	Total  int                 `json:"total"`
}

type EntriesResponse struct {
	Entries []catalog.Entry `json:"entries"`
	Total   int             `json:"total"`
}

type SelectResponse struct {
	Status string        `json:"status"`
	Entry  catalog.Entry `json:"entry"`
}

type PrefetchResponse struct {
	Queued   int `json:"queued"`
	Resolved int `json:"resolved"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

type ScanErrorsResponse struct {
	Errors []catalog.ScanError `json:"errors"`
}

type StatusResponse struct {
	UniqueID string `json:"unique"`
	Status   string `json:"status"`
}

type ScanResponse struct {
	RunID  string              `json:"runId"`
	Errors []catalog.ScanError `json:"errors"`
	Total  int                 `json:"total"`
}

type IDParams struct {
	ID string `json:"id" validate:"required"`
}

type ManualUpdateParams struct {
	ID string `json:"id" validate:"required"`
	catalog.ManualFields
}

type PrefetchParams struct {
	Limit int `json:"limit" validate:"min=0"`
}

type FetchParams struct {
	ID   string `json:"id" validate:"required"`
	Kind string `json:"kind" validate:"required,oneof=image info"`
}
