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
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/nabbar/imago/internal/idgen"
	"github.com/nabbar/imago/internal/logger"
	"github.com/nabbar/imago/internal/protocol"
	"github.com/nabbar/imago/internal/scheduler"
	"github.com/nabbar/imago/internal/transport"
)

// fakeEnqueuer records every job it's handed, standing in for the real
// scheduler so handler tests don't need a worker goroutine.
type fakeEnqueuer struct {
	mu     sync.Mutex
	jobs   []scheduler.Job
	reject bool
}

func (f *fakeEnqueuer) Enqueue(job scheduler.Job) error {
	if f.reject {
		return errors.New("scheduler closed")
	}
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()
	return nil
}

func (f *fakeEnqueuer) last() (scheduler.Job, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.jobs) == 0 {
		return scheduler.Job{}, false
	}
	return f.jobs[len(f.jobs)-1], true
}

// testClient is a minimal, test-only mirror of the wire protocol used to
// drive a Handler from the other end of a net.Pipe.
type testClient struct {
	t    *testing.T
	conn *transport.Conn
}

func newTestClient(t *testing.T, c net.Conn) *testClient {
	return &testClient{t: t, conn: transport.NewPlain(c, 5 * time.Second)}
}

func (c *testClient) send(typ protocol.MessageType, id string, payload []byte) {
	c.t.Helper()
	hdr := protocol.Encode(protocol.NewHeader(typ, uint32(len(payload)), id))
	if err := c.conn.SendExact(hdr[:]); err != nil {
		c.t.Fatalf("send header: %v", err)
	}
	if len(payload) > 0 {
		if err := c.conn.SendExact(payload); err != nil {
			c.t.Fatalf("send payload: %v", err)
		}
	}
}

func (c *testClient) recv() (protocol.Header, []byte, transport.Outcome) {
	c.t.Helper()
	hb, outcome, err := c.conn.RecvExact(protocol.HeaderSize)
	if outcome != transport.Ok {
		return protocol.Header{}, nil, outcome
	}
	if err != nil {
		c.t.Fatalf("recv header: %v", err)
	}
	hdr, err := protocol.Decode(hb)
	if err != nil {
		c.t.Fatalf("decode header: %v", err)
	}
	payload, outcome, err := c.conn.RecvExact(int(hdr.Length))
	if outcome != transport.Ok {
		return hdr, nil, outcome
	}
	if err != nil {
		c.t.Fatalf("recv payload: %v", err)
	}
	return hdr, payload, transport.Ok
}

func newPipe(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	return server, client
}

// TestHappyUploadSingleChunk drives scenario 1 from spec.md §8: a small
// image with processing_type=3 should yield an IMAGE_ID_RESPONSE, then an
// ACK carrying the same identifier, and a job enqueued with the full data.
func TestHappyUploadSingleChunk(t *testing.T) {
	srvConn, cliConn := newPipe(t)
	enq := &fakeEnqueuer{}
	h := &Handler{
		Conn:  transport.NewPlain(srvConn, 5 * time.Second),
		Sched: enq,
		Log:   logger.Discard(),
	}

	done := make(chan struct{})
	go func() { h.Serve(); close(done) }()

	cli := newTestClient(t, cliConn)
	cli.send(protocol.HELLO, "", nil)

	hdr, _, outcome := cli.recv()
	if outcome != transport.Ok || hdr.Type != protocol.ImageIDResponse {
		t.Fatalf("expected IMAGE_ID_RESPONSE, got %v outcome %v", hdr.Type, outcome)
	}
	id := hdr.IDString()
	if !idgen.Valid(id) {
		t.Fatalf("assigned id %q is not a valid UUID", id)
	}

	data := []byte{0x89, 0x50, 0x4e, 0x47, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}
	info := protocol.EncodeImageInfo(protocol.ImageInfo{
		Filename:       "red.png",
		TotalSize:      uint32(len(data)),
		TotalChunks:    1,
		ProcessingType: protocol.ProcessingBoth,
		Format:         "png",
	})
	cli.send(protocol.ImageInfoMsg, id, info[:])
	cli.send(protocol.ImageChunk, id, data)
	cli.send(protocol.ImageComplete, id, protocol.EncodeFormatPayload("png"))

	hdr, _, outcome = cli.recv()
	if outcome != transport.Ok || hdr.Type != protocol.Ack {
		t.Fatalf("expected ACK, got %v outcome %v", hdr.Type, outcome)
	}
	if hdr.IDString() != id {
		t.Fatalf("ACK id = %q, want %q", hdr.IDString(), id)
	}

	<-done

	job, ok := enq.last()
	if !ok {
		t.Fatal("no job was enqueued")
	}
	if job.Filename != "red.png" || job.ProcessingType != protocol.ProcessingBoth {
		t.Fatalf("unexpected job: %+v", job)
	}
	if string(job.Data) != string(data) {
		t.Fatalf("job data mismatch: got %v want %v", job.Data, data)
	}
}

// TestChunkBoundarySplit drives scenario 2: the same payload split across
// different chunk boundaries must reassemble identically.
func TestChunkBoundarySplit(t *testing.T) {
	payload := make([]byte, 5000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	splits := [][]int{{2048, 2048, 904}, {4096, 904}}
	var reassembled [][]byte

	for _, split := range splits {
		srvConn, cliConn := newPipe(t)
		enq := &fakeEnqueuer{}
		h := &Handler{Conn: transport.NewPlain(srvConn, 5 * time.Second), Sched: enq, Log: logger.Discard()}

		done := make(chan struct{})
		go func() { h.Serve(); close(done) }()

		cli := newTestClient(t, cliConn)
		cli.send(protocol.HELLO, "", nil)
		hdr, _, _ := cli.recv()
		id := hdr.IDString()

		info := protocol.EncodeImageInfo(protocol.ImageInfo{
			Filename:       "photo.jpg",
			TotalSize:      uint32(len(payload)),
			ProcessingType: protocol.ProcessingHistogram,
			Format:         "jpg",
		})
		cli.send(protocol.ImageInfoMsg, id, info[:])

		off := 0
		for _, n := range split {
			cli.send(protocol.ImageChunk, id, payload[off:off+n])
			off += n
		}
		cli.send(protocol.ImageComplete, id, protocol.EncodeFormatPayload("jpg"))

		ackHdr, _, outcome := cli.recv()
		if outcome != transport.Ok || ackHdr.Type != protocol.Ack {
			t.Fatalf("expected ACK for split %v, got %v", split, ackHdr.Type)
		}
		<-done

		job, ok := enq.last()
		if !ok {
			t.Fatalf("no job enqueued for split %v", split)
		}
		reassembled = append(reassembled, job.Data)
	}

	if string(reassembled[0]) != string(reassembled[1]) {
		t.Fatal("reassembled buffers differ across chunk splits")
	}
	if string(reassembled[0]) != string(payload) {
		t.Fatal("reassembled buffer does not match source payload")
	}
}

// TestMidUploadDisconnect drives scenario 3: the client closes after a
// partial chunk. No job is enqueued and no ACK is ever sent.
func TestMidUploadDisconnect(t *testing.T) {
	srvConn, cliConn := newPipe(t)
	enq := &fakeEnqueuer{}
	h := &Handler{Conn: transport.NewPlain(srvConn, 5 * time.Second), Sched: enq, Log: logger.Discard()}

	done := make(chan struct{})
	go func() { h.Serve(); close(done) }()

	cli := newTestClient(t, cliConn)
	cli.send(protocol.HELLO, "", nil)
	hdr, _, _ := cli.recv()
	id := hdr.IDString()

	info := protocol.EncodeImageInfo(protocol.ImageInfo{
		Filename:       "big.png",
		TotalSize:      10000,
		ProcessingType: protocol.ProcessingBoth,
		Format:         "png",
	})
	cli.send(protocol.ImageInfoMsg, id, info[:])
	cli.send(protocol.ImageChunk, id, make([]byte, 4096))
	cliConn.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit after client disconnect")
	}

	if _, ok := enq.last(); ok {
		t.Fatal("a job was enqueued despite mid-upload disconnect")
	}
}
