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

// Package notifications builds and queues websocket events. Sends never
// block: when the queue is full the event is dropped and logged.
package notifications

import (
	"encoding/json"

	"github.com/ZaparooProject/zaparoo-library/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/rs/zerolog/log"
)

func sendNotification(ns chan<- models.Notification, method string, payload any) {
	if ns == nil {
		return
	}

	var params json.RawMessage
	if payload != nil {
		var err error
		params, err = json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("error marshalling notification params")
			return
		}
	}

	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notification queue full, dropping")
	}
}

func CatalogUpdated(ns chan<- models.Notification, total int) {
	sendNotification(ns, models.NotificationCatalogUpdated, models.CatalogUpdatedParams{Total: total})
}

//nolint:gocritic // entry is sent by value
func EntryUpdated(ns chan<- models.Notification, e catalog.Entry) {
	sendNotification(ns, models.NotificationEntryUpdated, e)
}

func StatusChanged(ns chan<- models.Notification, uniqueID, status string) {
	sendNotification(ns, models.NotificationStatusChanged, models.StatusChangedParams{
		UniqueID: uniqueID,
		Status:   status,
	})
}

func ScanCompleted(ns chan<- models.Notification, payload models.ScanCompletedParams) {
	sendNotification(ns, models.NotificationScanCompleted, payload)
}
