/*
 * MIT License
 *
 * Copyright (c) 2026 The imago Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"github.com/nabbar/imago/internal/apperr"
	"github.com/nabbar/imago/internal/logger"
	"github.com/nabbar/imago/internal/metrics"
)

// Processor is whatever consumes a popped Job; the scheduler invokes it
// without holding its lock, per spec.md §4.4's concurrency contract.
type Processor interface {
	Process(job Job)
}

// Scheduler drains a min-heap of pending Jobs with exactly one worker
// goroutine. It is the sole owner of queued buffers between Enqueue and
// processor entry.
type Scheduler struct {
	mu       sync.Mutex
	cond     *sync.Cond
	heap     jobHeap
	shutdown bool
	done     chan struct{}

	proc Processor
	log  *logger.Logger
	met  *metrics.Metrics
}

// New constructs a Scheduler bound to proc. Call Init to start the worker.
func New(proc Processor, log *logger.Logger, met *metrics.Metrics) *Scheduler {
	s := &Scheduler{
		proc: proc,
		log:  log,
		met:  met,
		done: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Init starts the worker goroutine. It is not idempotent: calling it twice
// starts two workers racing over the same queue.
func (s *Scheduler) Init() {
	go s.run()
}

// Enqueue takes ownership of job.Data on success. On failure (scheduler
// shutting down) the caller retains ownership and must release job.Data.
func (s *Scheduler) Enqueue(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return apperr.New(apperr.CodeSchedulerClosed, "scheduler is shutting down")
	}

	job.enqueuedAt = time.Now()
	heap.Push(&s.heap, job)
	s.reportDepthLocked()
	s.cond.Signal()
	return nil
}

// Shutdown sets the terminate flag, wakes the worker, joins it, then drains
// any remaining heap entries, releasing every owned buffer. Safe to call
// more than once.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	alreadyDown := s.shutdown
	s.shutdown = true
	s.cond.Broadcast()
	s.mu.Unlock()

	if !alreadyDown {
		<-s.done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.heap.Len() > 0 {
		job := heap.Pop(&s.heap).(Job)
		job.Data = nil
	}
	s.reportDepthLocked()
}

// Depth reports the number of jobs currently pending, for tests and
// observability.
func (s *Scheduler) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heap.Len()
}

func (s *Scheduler) run() {
	defer close(s.done)

	for {
		s.mu.Lock()
		for s.heap.Len() == 0 && !s.shutdown {
			s.cond.Wait()
		}

		if s.heap.Len() == 0 && s.shutdown {
			s.mu.Unlock()
			return
		}

		job := heap.Pop(&s.heap).(Job)
		s.reportDepthLocked()
		wait := time.Since(job.enqueuedAt)
		s.mu.Unlock()

		if s.met != nil {
			s.met.ObserveWaitDuration(wait.Seconds())
		}

		s.processOne(job)
	}
}

// processOne invokes the processor and recovers from a panic inside it so a
// single bad job can never take down the worker, matching spec.md §4.4/§7's
// "no single bad image may stop the worker" guarantee.
func (s *Scheduler) processOne(job Job) {
	defer func() {
		if r := recover(); r != nil && s.log != nil {
			s.log.Entry(logger.ErrorLevel, "processor panicked").
				FieldAdd("image_id", job.ImageID).
				FieldAdd("recover", r).
				Log()
		}
	}()
	s.proc.Process(job)
}

func (s *Scheduler) reportDepthLocked() {
	if s.met == nil {
		return
	}
	n := s.heap.Len()
	s.met.SetQueueDepth(n)
	if n == 0 {
		s.met.SetOldestPendingSeconds(0)
		return
	}
	oldest := s.heap[0].enqueuedAt
	for _, j := range s.heap {
		if j.enqueuedAt.Before(oldest) {
			oldest = j.enqueuedAt
		}
	}
	s.met.SetOldestPendingSeconds(time.Since(oldest).Seconds())
}
