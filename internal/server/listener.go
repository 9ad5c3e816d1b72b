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

package server

import (
	"crypto/tls"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/nabbar/imago/internal/logger"
	"github.com/nabbar/imago/internal/metrics"
	"github.com/nabbar/imago/internal/transport"
)

// Listener owns the accept loop: one task per connection, detached, sharing
// only the scheduler queue and the log sink, per spec.md §5.
type Listener struct {
	Addr   string
	TLS    *tls.Config // nil disables TLS
	Sched  Enqueuer
	Log    *logger.Logger
	Metric *metrics.Metrics

	// MaxImageSize is forwarded to every Handler; zero selects the
	// protocol default.
	MaxImageSize uint32

	// Ready, if non-nil, is closed once the listening socket is bound and
	// before the accept loop starts. Tests and readiness probes use it to
	// learn the ephemeral port chosen when Addr ends in ":0".
	Ready chan struct{}

	// OnReload, if non-nil, is invoked from the accept loop after a SIGHUP
	// is observed, per spec.md §6. A returned error is logged at WarnLevel
	// and otherwise ignored: the server keeps running on its prior config
	// rather than tearing itself down over a bad reload.
	OnReload func() error

	reloadFlag int32
	wg         sync.WaitGroup
	ln         net.Listener
}

// BoundAddr returns the address actually bound by Run, which may differ
// from Addr when Addr requested an ephemeral port. It is only meaningful
// after Ready (or Run itself) has signalled the bind completed.
func (l *Listener) BoundAddr() string {
	if l.ln == nil {
		return ""
	}
	return l.ln.Addr().String()
}

// Reload reports and clears whether SIGHUP was observed since the last
// call, for the accept loop to act on between accepts.
func (l *Listener) Reload() bool {
	return atomic.SwapInt32(&l.reloadFlag, 0) == 1
}

// Run binds the listening socket and serves connections until Shutdown
// closes it. It returns once the socket is closed and every in-flight
// handler has settled.
func (l *Listener) Run() error {
	ln, err := net.Listen("tcp", l.Addr)
	if err != nil {
		return err
	}
	l.ln = ln
	if l.Ready != nil {
		close(l.Ready)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)
	go func() {
		for range sig {
			atomic.StoreInt32(&l.reloadFlag, 1)
		}
	}()
	defer signal.Stop(sig)

	for {
		conn, err := ln.Accept()
		if err != nil {
			// Shutdown closes l.ln to interrupt Accept; that is the
			// expected, non-fatal exit path.
			if l.entryLog("accept") {
				l.Log.Entry(logger.InfoLevel, "accept loop stopped").
					ErrorAdd(true, err).
					Log()
			}
			l.wg.Wait()
			return nil
		}

		if l.Reload() {
			l.runReload()
		}

		l.wg.Add(1)
		go l.serveConn(conn)
	}
}

func (l *Listener) runReload() {
	if l.OnReload == nil {
		return
	}
	if err := l.OnReload(); err != nil {
		if l.Log != nil {
			l.Log.Entry(logger.WarnLevel, "config reload failed, keeping prior config").
				ErrorAdd(true, err).
				Log()
		}
		return
	}
	if l.Log != nil {
		l.Log.Entry(logger.InfoLevel, "config reloaded").Log()
	}
}

func (l *Listener) serveConn(raw net.Conn) {
	defer l.wg.Done()

	c := raw
	if l.TLS != nil {
		tc := tls.Server(raw, l.TLS)
		if err := tc.Handshake(); err != nil {
			if l.Log != nil {
				l.Log.Entry(logger.WarnLevel, "TLS handshake failed").
					FieldAdd("remote", raw.RemoteAddr().String()).
					ErrorAdd(true, err).
					Log()
			}
			_ = raw.Close()
			return
		}
		c = tc
	}

	var conn *transport.Conn
	if l.TLS != nil {
		conn = transport.NewTLS(c, transport.DefaultTimeout)
	} else {
		conn = transport.NewPlain(c, transport.DefaultTimeout)
	}

	h := &Handler{
		Conn:         conn,
		Sched:        l.Sched,
		Log:          l.Log,
		Metric:       l.Metric,
		MaxImageSize: l.MaxImageSize,
	}
	h.Serve()
}

// Shutdown closes the listening socket, interrupting Accept, then blocks
// until every in-flight handler has finished its current frame and closed.
func (l *Listener) Shutdown() error {
	if l.ln == nil {
		return nil
	}
	err := l.ln.Close()
	l.wg.Wait()
	return err
}

func (l *Listener) entryLog(_ string) bool {
	return l.Log != nil
}
