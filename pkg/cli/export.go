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

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/gocarina/gocsv"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var ErrUnknownFormat = errors.New("unknown export format")

type exportRow struct {
	UniqueID   string `csv:"unique_id" yaml:"unique_id"`
	Name       string `csv:"name" yaml:"name"`
	Launcher   string `csv:"launcher" yaml:"launcher"`
	Source     string `csv:"source" yaml:"source"`
	Path       string `csv:"path" yaml:"path"`
	AppID      string `csv:"appid" yaml:"appid,omitempty"`
	Image      string `csv:"image" yaml:"image,omitempty"`
	Info       string `csv:"info" yaml:"info,omitempty"`
	LaunchTime string `csv:"launch_time" yaml:"launch_time,omitempty"`
}

func toRows(entries []catalog.Entry) []*exportRow {
	rows := make([]*exportRow, len(entries))
	for i := range entries {
		e := &entries[i]
		row := &exportRow{
			UniqueID: e.UniqueID,
			Name:     e.Name,
			Launcher: e.Launcher,
			Source:   string(e.Source),
			Path:     e.Path,
			AppID:    e.AppID,
			Image:    e.Image,
			Info:     e.Info,
		}
		if !e.LaunchTime.IsZero() {
			row.LaunchTime = e.LaunchTime.UTC().Format(time.RFC3339)
		}
		rows[i] = row
	}
	return rows
}

func validFormat(format string) bool {
	return slices.Contains([]string{FormatCSV, FormatJSON, FormatYAML}, format)
}

func writeExport(w io.Writer, format string, entries []catalog.Entry) error {
	switch format {
	case FormatCSV:
		if err := gocsv.Marshal(toRows(entries), w); err != nil {
			return fmt.Errorf("error writing csv: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []catalog.Entry{}
		}
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("error writing json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toRows(entries)); err != nil {
			return fmt.Errorf("error writing yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("error writing yaml: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return nil
}

func filterLauncher(entries []catalog.Entry, launcher string) []catalog.Entry {
	if launcher == "" {
		return entries
	}
	out := make([]catalog.Entry, 0, len(entries))
	for i := range entries {
		if strings.EqualFold(entries[i].Launcher, launcher) {
			out = append(out, entries[i])
		}
	}
	return out
}

func imageState(e *catalog.Entry) string {
	switch {
	case e.Image == catalog.ImageNotFound:
		return "not found"
	case e.HasImage():
		return "yes"
	default:
		return ""
	}
}

func renderEntries(w io.Writer, entries []catalog.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Launcher", "Source", "Image", "ID"})
	for i := range entries {
		e := &entries[i]
		t.AppendRow(table.Row{e.Name, e.Launcher, e.Source, imageState(e), e.UniqueID})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(entries)})
	t.Render()
}

func renderScanErrors(w io.Writer, errs []catalog.ScanError) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Launcher", "Error"})
	for _, e := range errs {
		t.AppendRow(table.Row{e.Launcher, e.Message})
	}
	t.Render()
}
