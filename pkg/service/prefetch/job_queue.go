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

package prefetch

import (
	"context"
	"errors"

	"github.com/ZaparooProject/zaparoo-library/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

const DefaultQueueSize = 1000

var (
	ErrQueueClosed = errors.New("job queue is closed")
	ErrQueueFull   = errors.New("job queue is full")
)

// Job is one lookup for one entry. Entry is a snapshot taken when the job
// was queued; workers never write to it.
type Job struct {
	Entry catalog.Entry
	Kind  catalog.FetchKind
}

// JobQueue is a bounded, non-blocking queue feeding the worker pool.
type JobQueue struct {
	queue  chan *Job
	ctx    context.Context
	mu     syncutil.Mutex
	closed bool
}

func NewJobQueue(ctx context.Context, capacity int) *JobQueue {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	return &JobQueue{
		queue: make(chan *Job, capacity),
		ctx:   ctx,
	}
}

func (jq *JobQueue) Enqueue(job *Job) error {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	if jq.closed {
		return ErrQueueClosed
	}

	select {
	case <-jq.ctx.Done():
		return jq.ctx.Err() //nolint:wrapcheck // context errors are returned as is
	case jq.queue <- job:
		log.Debug().
			Str("unique", job.Entry.UniqueID).
			Str("kind", string(job.Kind)).
			Msg("job enqueued")
		return nil
	default:
		return ErrQueueFull
	}
}

// Channel returns the receive side for workers.
func (jq *JobQueue) Channel() <-chan *Job {
	return jq.queue
}

func (jq *JobQueue) Close() {
	jq.mu.Lock()
	defer jq.mu.Unlock()
	if !jq.closed {
		jq.closed = true
		close(jq.queue)
	}
}

func (jq *JobQueue) Size() int {
	return len(jq.queue)
}

func (jq *JobQueue) Capacity() int {
	return cap(jq.queue)
}
