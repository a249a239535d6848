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
	"sync"

	"github.com/rs/zerolog/log"
)

// JobProcessor handles a single job. A returned error is logged and the
// worker moves on.
type JobProcessor interface {
	ProcessJob(ctx context.Context, job *Job) error
}

// WorkerPool runs a fixed number of workers over a job channel until the
// channel is closed or the context is cancelled.
type WorkerPool struct {
	ctx         context.Context
	jobQueue    <-chan *Job
	processor   JobProcessor
	workerWG    sync.WaitGroup
	workerCount int
}

func NewWorkerPool(ctx context.Context, workerCount int, jobQueue <-chan *Job, processor JobProcessor) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &WorkerPool{
		workerCount: workerCount,
		ctx:         ctx,
		jobQueue:    jobQueue,
		processor:   processor,
	}
}

func (wp *WorkerPool) Start() {
	log.Debug().Int("workers", wp.workerCount).Msg("starting prefetch workers")
	for i := range wp.workerCount {
		wp.workerWG.Add(1)
		go wp.worker(i)
	}
}

// Stop waits for every worker to exit. Close the queue or cancel the
// context first.
func (wp *WorkerPool) Stop() {
	wp.workerWG.Wait()
	log.Debug().Msg("prefetch workers stopped")
}

func (wp *WorkerPool) worker(id int) {
	defer wp.workerWG.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			if err := wp.processor.ProcessJob(wp.ctx, job); err != nil {
				log.Debug().Err(err).
					Int("worker_id", id).
					Str("unique", job.Entry.UniqueID).
					Str("kind", string(job.Kind)).
					Msg("prefetch job failed")
			}
		}
	}
}
