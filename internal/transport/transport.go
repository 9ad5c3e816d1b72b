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

// Package transport implements exact-length send/recv over a plain TCP
// socket or a TLS-wrapped socket, distinguishing a clean peer close from an
// I/O error as required by spec.md §4.2.
package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// Outcome classifies the result of a recv.
type Outcome uint8

const (
	Ok Outcome = iota
	Eof
	Err
)

// DefaultTimeout is the per-syscall read/write timeout applied on the server
// side of every accepted connection, per spec.md §4.2.
const DefaultTimeout = 15 * time.Second

// Conn is the transport abstraction shared by the server and client: exact
// send/recv over either a plain net.Conn or a TLS-wrapped one.
type Conn struct {
	mu      sync.Mutex
	raw     net.Conn
	tlsConn tlsCloser
	timeout time.Duration
}

// tlsCloser is the subset of *tls.Conn used here, kept as an interface so
// tests can substitute a fake without a real certificate.
type tlsCloser interface {
	net.Conn
	CloseWrite() error
}

// NewPlain wraps a plain net.Conn.
func NewPlain(c net.Conn, timeout time.Duration) *Conn {
	return &Conn{raw: c, timeout: timeout}
}

// NewTLS wraps a TLS-established net.Conn. The caller has already performed
// (or will performed lazily by net/tls on first I/O) the handshake.
func NewTLS(c net.Conn, timeout time.Duration) *Conn {
	t := &Conn{raw: c, timeout: timeout}
	if tc, ok := c.(tlsCloser); ok {
		t.tlsConn = tc
	}
	return t
}

// SendExact writes every byte of b or returns an error. Any error from the
// underlying socket or TLS layer surfaces verbatim.
func (c *Conn) SendExact(b []byte) error {
	if err := c.deadline(); err != nil {
		return err
	}
	_, err := io.WriteString(writerOf(c.raw), string(b))
	return err
}

// writerOf exists only to keep the call-site symmetrical with io helpers;
// net.Conn already implements io.Writer.
func writerOf(w io.Writer) io.Writer { return w }

// RecvExact reads exactly n bytes or returns one of Ok, Eof (peer closed
// cleanly at a frame boundary, before any of the n bytes was read) or Err
// (any other I/O or TLS error, including EOF in the middle of a frame).
func (c *Conn) RecvExact(n int) ([]byte, Outcome, error) {
	if n == 0 {
		return []byte{}, Ok, nil
	}

	buf := make([]byte, n)
	read := 0
	for read < n {
		if err := c.deadline(); err != nil {
			return nil, Err, err
		}
		m, err := c.raw.Read(buf[read:])
		read += m
		if err != nil {
			if errors.Is(err, io.EOF) {
				if read == 0 {
					return nil, Eof, nil
				}
				return nil, Err, io.ErrUnexpectedEOF
			}
			return nil, Err, err
		}
	}
	return buf, Ok, nil
}

func (c *Conn) deadline() error {
	if c.timeout <= 0 {
		return nil
	}
	return c.raw.SetDeadline(time.Now().Add(c.timeout))
}

// Close performs an orderly TLS shutdown when established, then closes the
// socket. Close is idempotent.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.raw == nil {
		return nil
	}

	if c.tlsConn != nil {
		_ = c.tlsConn.CloseWrite()
	}

	err := c.raw.Close()
	c.raw = nil
	c.tlsConn = nil
	return err
}

// RemoteAddr exposes the peer address for logging.
func (c *Conn) RemoteAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.raw == nil {
		return nil
	}
	return c.raw.RemoteAddr()
}
