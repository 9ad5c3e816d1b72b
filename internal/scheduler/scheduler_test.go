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
	"sync"
	"testing"
	"time"

	"github.com/nabbar/imago/internal/logger"
)

// gatingProcessor blocks every Process call until released, so a test can
// hold the worker idle while it enqueues a batch of jobs, then release it
// and observe pop order.
type gatingProcessor struct {
	mu      sync.Mutex
	gate    chan struct{}
	order   []string
	onStart func()
}

func newGatingProcessor() *gatingProcessor {
	return &gatingProcessor{gate: make(chan struct{})}
}

func (g *gatingProcessor) Process(job Job) {
	if g.onStart != nil {
		g.onStart()
	}
	<-g.gate
	g.mu.Lock()
	g.order = append(g.order, job.Filename)
	g.mu.Unlock()
}

func (g *gatingProcessor) release() { close(g.gate) }

func mustJob(t *testing.T, filename string, size int) Job {
	t.Helper()
	job, ok := NewJob("id-"+filename, filename, "png", 3, make([]byte, size))
	if !ok {
		t.Fatalf("NewJob(%s) rejected", filename)
	}
	return job
}

// TestEnqueueOrderSmallestFirst enqueues jobs of size {9000, 100, 4500} while
// the worker is parked processing a first job, then releases it and checks
// the remaining three pop in ascending TotalSize order: 100, 4500, 9000.
func TestEnqueueOrderSmallestFirst(t *testing.T) {
	proc := newGatingProcessor()

	started := make(chan struct{}, 1)
	proc.onStart = func() {
		select {
		case started <- struct{}{}:
		default:
		}
	}

	s := New(proc, logger.Discard(), nil)
	s.Init()
	defer s.Shutdown()

	first := mustJob(t, "first", 1)
	if err := s.Enqueue(first); err != nil {
		t.Fatalf("Enqueue(first): %v", err)
	}
	<-started // worker is now blocked inside Process(first), queue is free to fill

	jobs := []Job{
		mustJob(t, "b.png", 9000),
		mustJob(t, "a.png", 100),
		mustJob(t, "c.png", 4500),
	}
	for _, j := range jobs {
		if err := s.Enqueue(j); err != nil {
			t.Fatalf("Enqueue(%s): %v", j.Filename, err)
		}
	}

	if depth := s.Depth(); depth != 3 {
		t.Fatalf("Depth() = %d, want 3", depth)
	}

	proc.release()

	deadline := time.After(2 * time.Second)
	for {
		proc.mu.Lock()
		n := len(proc.order)
		proc.mu.Unlock()
		if n == 4 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for all jobs to process, got %v", proc.order)
		case <-time.After(time.Millisecond):
		}
	}

	want := []string{"first", "a.png", "c.png", "b.png"}
	proc.mu.Lock()
	got := append([]string(nil), proc.order...)
	proc.mu.Unlock()

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pop order = %v, want %v", got, want)
		}
	}
}

func TestEnqueueRejectedAfterShutdown(t *testing.T) {
	proc := newGatingProcessor()
	close(proc.gate) // never blocks, so Shutdown can join immediately

	s := New(proc, logger.Discard(), nil)
	s.Init()
	s.Shutdown()

	if err := s.Enqueue(mustJob(t, "late.png", 10)); err == nil {
		t.Fatal("Enqueue after Shutdown succeeded, want error")
	}
}

func TestShutdownDrainsRemainingJobs(t *testing.T) {
	proc := newGatingProcessor()

	started := make(chan struct{}, 1)
	proc.onStart = func() {
		select {
		case started <- struct{}{}:
		default:
		}
	}

	s := New(proc, logger.Discard(), nil)
	s.Init()

	if err := s.Enqueue(mustJob(t, "blocker.png", 1)); err != nil {
		t.Fatalf("Enqueue(blocker): %v", err)
	}
	<-started

	if err := s.Enqueue(mustJob(t, "queued.png", 1)); err != nil {
		t.Fatalf("Enqueue(queued): %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()

	// Shutdown must wait for the in-flight job before it can join the worker.
	select {
	case <-done:
		t.Fatal("Shutdown returned while worker still blocked in Process")
	case <-time.After(50 * time.Millisecond):
	}

	proc.release()
	<-done

	if depth := s.Depth(); depth != 0 {
		t.Fatalf("Depth() after Shutdown = %d, want 0", depth)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	proc := newGatingProcessor()
	close(proc.gate)

	s := New(proc, logger.Discard(), nil)
	s.Init()
	s.Shutdown()
	s.Shutdown()
}
