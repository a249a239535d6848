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

// Package command wraps os/exec behind an interface so process launches can
// be mocked in tests.
package command

import (
	"context"
	"os/exec"
)

// StartOptions configures how a detached process is started.
type StartOptions struct {
	// Dir is the working directory. Empty means the caller's.
	Dir string
	// HideWindow suppresses the console window on Windows.
	HideWindow bool
}

// Executor runs external commands.
type Executor interface {
	// Output runs a command to completion and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Start starts a command without waiting for it to exit.
	Start(ctx context.Context, name string, args ...string) error

	// StartWithOptions is Start with a working directory and platform
	// specific options.
	StartWithOptions(ctx context.Context, opts StartOptions, name string, args ...string) error
}

// RealExecutor runs commands with os/exec.
type RealExecutor struct{}

//nolint:wrapcheck // exec errors already name the command
func (*RealExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Start runs the process detached from ctx cancellation so a launched game
// outlives the request that started it.
//
//nolint:wrapcheck // exec errors already name the command
func (*RealExecutor) Start(ctx context.Context, name string, args ...string) error {
	return startDetached(exec.CommandContext(context.WithoutCancel(ctx), name, args...))
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	// reap in the background so no zombie is left behind
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
