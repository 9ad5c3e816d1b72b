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

package transport

import (
	"net"
	"testing"
	"time"
)

func pipe(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	server, client := net.Pipe()
	return NewPlain(server, time.Second), NewPlain(client, time.Second)
}

func TestSendRecvExact(t *testing.T) {
	srv, cli := pipe(t)
	defer srv.Close()
	defer cli.Close()

	payload := []byte("hello world")
	go func() {
		_ = cli.SendExact(payload)
	}()

	got, outcome, err := srv.RecvExact(len(payload))
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if outcome != Ok {
		t.Fatalf("outcome = %v, want Ok", outcome)
	}
	if string(got) != string(payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestRecvExactZeroLength(t *testing.T) {
	srv, cli := pipe(t)
	defer srv.Close()
	defer cli.Close()

	got, outcome, err := srv.RecvExact(0)
	if err != nil || outcome != Ok || len(got) != 0 {
		t.Fatalf("got %v %v %v, want empty Ok", got, outcome, err)
	}
}

func TestRecvExactCleanCloseIsEof(t *testing.T) {
	srv, cli := pipe(t)
	defer srv.Close()

	go cli.Close()

	_, outcome, err := srv.RecvExact(4)
	if outcome != Eof {
		t.Fatalf("outcome = %v, want Eof (err=%v)", outcome, err)
	}
}

func TestRecvExactMidFrameCloseIsErr(t *testing.T) {
	srv, cli := pipe(t)
	defer srv.Close()

	go func() {
		_ = cli.SendExact([]byte("ab"))
		cli.Close()
	}()

	_, outcome, err := srv.RecvExact(4)
	if outcome != Err {
		t.Fatalf("outcome = %v, want Err", outcome)
	}
	if err == nil {
		t.Fatal("expected non-nil error for mid-frame EOF")
	}
}

func TestCloseIdempotent(t *testing.T) {
	srv, cli := pipe(t)
	defer cli.Close()

	if err := srv.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
