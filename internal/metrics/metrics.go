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

// Package metrics exposes the Prometheus counters/gauges/histograms named in
// SPEC_FULL.md §3 (Metrics snapshot): frame counts, scheduler depth, job
// duration, and per-stage processing failures.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector registered by the server. A nil *Metrics
// is valid everywhere it's consulted (all methods no-op), so metrics stay
// optional without threading a boolean through every call site.
type Metrics struct {
	reg *prometheus.Registry

	framesReceived *prometheus.CounterVec
	framesSent     *prometheus.CounterVec
	queueDepth     prometheus.Gauge
	oldestPending  prometheus.Gauge
	jobDuration    prometheus.Histogram
	jobWait        prometheus.Histogram
	failures       *prometheus.CounterVec
}

// New builds a fresh, self-contained registry (not the global default) so
// tests can spin up independent instances without collector-already-
// registered panics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imago",
			Name:      "frames_received_total",
			Help:      "Frames received by type.",
		}, []string{"type"}),
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imago",
			Name:      "frames_sent_total",
			Help:      "Frames sent by type.",
		}, []string{"type"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "imago",
			Name:      "scheduler_queue_depth",
			Help:      "Number of jobs currently pending in the scheduler heap.",
		}),
		oldestPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "imago",
			Name:      "scheduler_oldest_pending_seconds",
			Help:      "Age in seconds of the oldest pending job, 0 when the queue is empty.",
		}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "imago",
			Name:      "job_processing_duration_seconds",
			Help:      "Time spent processing one job end to end.",
			Buckets:   prometheus.DefBuckets,
		}),
		jobWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "imago",
			Name:      "job_wait_duration_seconds",
			Help:      "Time a job spent in the scheduler heap before being popped.",
			Buckets:   prometheus.DefBuckets,
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imago",
			Name:      "processing_failures_total",
			Help:      "Processing failures by stage (decode/classify/equalize).",
		}, []string{"stage"}),
	}

	reg.MustRegister(m.framesReceived, m.framesSent, m.queueDepth, m.oldestPending, m.jobDuration, m.jobWait, m.failures)
	return m
}

// Registry exposes the underlying *prometheus.Registry for wiring an
// HTTP /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) IncFrameReceived(msgType string) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(msgType).Inc()
}

func (m *Metrics) IncFrameSent(msgType string) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(msgType).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) SetOldestPendingSeconds(s float64) {
	if m == nil {
		return
	}
	m.oldestPending.Set(s)
}

func (m *Metrics) ObserveProcessingDuration(seconds float64) {
	if m == nil {
		return
	}
	m.jobDuration.Observe(seconds)
}

func (m *Metrics) ObserveWaitDuration(seconds float64) {
	if m == nil {
		return
	}
	m.jobWait.Observe(seconds)
}

func (m *Metrics) IncFailure(stage string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(stage).Inc()
}
