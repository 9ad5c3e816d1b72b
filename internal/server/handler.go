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
	"strings"

	"github.com/nabbar/imago/internal/apperr"
	"github.com/nabbar/imago/internal/idgen"
	"github.com/nabbar/imago/internal/logger"
	"github.com/nabbar/imago/internal/metrics"
	"github.com/nabbar/imago/internal/protocol"
	"github.com/nabbar/imago/internal/scheduler"
	"github.com/nabbar/imago/internal/transport"
)

// Enqueuer is the scheduler seam the handler enqueues completed jobs into.
type Enqueuer interface {
	Enqueue(job scheduler.Job) error
}

// Handler drives one accepted connection through AwaitHello -> AwaitInfo ->
// Receiving -> Terminal, per spec.md §4.5. A Handler is used for exactly one
// connection and discarded.
type Handler struct {
	Conn   *transport.Conn
	Sched  Enqueuer
	Log    *logger.Logger
	Metric *metrics.Metrics

	// MaxImageSize bounds total_size; zero selects protocol.MaxImageSize.
	MaxImageSize uint32
}

// receiving holds everything accumulated for the image currently in flight,
// valid only while the handler is in stateReceiving.
type receiving struct {
	imageID        string
	filename       string
	processingType uint8
	format         string
	buf            []byte
}

// Serve runs the state machine to completion: either a clean Terminal exit
// after ACK, or an early return on any transport error or protocol
// violation. The connection is always closed before Serve returns.
func (h *Handler) Serve() {
	defer h.Conn.Close()

	st := stateAwaitHello
	var rc receiving

	for st != stateTerminal {
		hdr, payload, ok := h.readFrame(st)
		if !ok {
			return
		}

		var next state
		next, ok = h.step(st, hdr, payload, &rc)
		if !ok {
			return
		}
		st = next
	}
}

// readFrame reads one header and its declared payload. It returns ok=false
// (and has already logged) on any transport error, including a mid-frame
// EOF. A clean close at a frame boundary is logged as a dropped connection
// whenever it interrupts an upload already in progress (st beyond
// AwaitHello), per spec.md §8 scenario 3.
func (h *Handler) readFrame(st state) (protocol.Header, []byte, bool) {
	hb, outcome, err := h.Conn.RecvExact(protocol.HeaderSize)
	if outcome == transport.Eof {
		if st != stateAwaitHello && h.Log != nil {
			h.Log.Entry(logger.InfoLevel, "connection closed before completion").
				FieldAdd("state", st.String()).
				Log()
		}
		return protocol.Header{}, nil, false
	}
	if err != nil || outcome != transport.Ok {
		h.logTransportError("read header", err)
		return protocol.Header{}, nil, false
	}

	hdr, err := protocol.Decode(hb)
	if err != nil {
		h.logProtocolError("decode header", err)
		return protocol.Header{}, nil, false
	}

	if hdr.Length > protocol.MaxImageSize {
		h.logProtocolError("oversize frame", apperr.New(apperr.CodeProtocolOverflow, "declared length exceeds maximum"))
		return protocol.Header{}, nil, false
	}

	payload, outcome, err := h.Conn.RecvExact(int(hdr.Length))
	if outcome != transport.Ok {
		h.logTransportError("read payload", err)
		return protocol.Header{}, nil, false
	}

	if h.Metric != nil {
		h.Metric.IncFrameReceived(hdr.Type.String())
	}
	return hdr, payload, true
}

// step applies one frame to the state machine, returning the next state and
// whether the connection should remain open.
func (h *Handler) step(st state, hdr protocol.Header, payload []byte, rc *receiving) (state, bool) {
	switch st {
	case stateAwaitHello:
		return h.onAwaitHello(hdr, rc)
	case stateAwaitInfo:
		return h.onAwaitInfo(hdr, payload, rc)
	case stateReceiving:
		return h.onReceiving(hdr, payload, rc)
	default:
		return st, false
	}
}

func (h *Handler) onAwaitHello(hdr protocol.Header, rc *receiving) (state, bool) {
	if hdr.Type != protocol.HELLO {
		// Unknown/out-of-place frame: the payload has already been
		// consumed by readFrame; stay and wait for HELLO.
		return stateAwaitHello, true
	}
	rc.imageID = idgen.New()
	if err := h.sendIDResponse(rc.imageID); err != nil {
		h.logTransportError("send image_id_response", err)
		return stateAwaitHello, false
	}
	return stateAwaitInfo, true
}

func (h *Handler) onAwaitInfo(hdr protocol.Header, payload []byte, rc *receiving) (state, bool) {
	switch hdr.Type {
	case protocol.HELLO:
		rc.imageID = idgen.New()
		if err := h.sendIDResponse(rc.imageID); err != nil {
			h.logTransportError("send image_id_response", err)
			return stateAwaitInfo, false
		}
		return stateAwaitInfo, true

	case protocol.ImageInfoMsg:
		if len(payload) != protocol.ImageInfoSize {
			h.logProtocolError("bad image_info length", apperr.New(apperr.CodeProtocolBadLength, "image_info payload size mismatch"))
			return stateAwaitInfo, false
		}
		info, err := protocol.DecodeImageInfo(payload)
		if err != nil {
			h.logProtocolError("decode image_info", err)
			return stateAwaitInfo, false
		}

		maxSize := h.MaxImageSize
		if maxSize == 0 {
			maxSize = protocol.MaxImageSize
		}
		if info.TotalSize == 0 || info.TotalSize > maxSize {
			h.logProtocolError("bad total_size", apperr.New(apperr.CodeProtocolBadValue, "total_size out of range"))
			return stateAwaitInfo, false
		}

		rc.filename = sanitizeFilename(info.Filename)
		rc.processingType = protocol.NormalizeProcessingType(info.ProcessingType)
		rc.format = info.Format
		rc.buf = make([]byte, 0, info.TotalSize)
		return stateReceiving, true

	default:
		return stateAwaitInfo, true
	}
}

func (h *Handler) onReceiving(hdr protocol.Header, payload []byte, rc *receiving) (state, bool) {
	switch hdr.Type {
	case protocol.ImageChunk:
		if uint32(len(rc.buf))+uint32(len(payload)) > uint32(cap(rc.buf)) {
			h.logProtocolError("chunk overflow", apperr.New(apperr.CodeProtocolOverflow, "chunk exceeds declared total_size"))
			rc.buf = nil
			return stateReceiving, false
		}
		rc.buf = append(rc.buf, payload...)
		return stateReceiving, true

	case protocol.ImageComplete:
		if len(rc.buf) != cap(rc.buf) {
			h.logProtocolError("incomplete image", apperr.New(apperr.CodeProtocolBadValue, "received bytes do not match declared total_size"))
			rc.buf = nil
			return stateReceiving, false
		}

		format := protocol.DecodeFormatPayload(payload)
		if format == "" {
			format = rc.format
		}

		job, ok := scheduler.NewJob(rc.imageID, rc.filename, format, rc.processingType, rc.buf)
		if !ok {
			h.logProtocolError("empty image", apperr.New(apperr.CodeResourceAlloc, "zero-length image buffer"))
			rc.buf = nil
			return stateReceiving, false
		}

		if err := h.Sched.Enqueue(job); err != nil {
			h.logEntry("enqueue failed", err).FieldAdd("image_id", rc.imageID).Log()
			job.Data = nil
			return stateReceiving, false
		}

		if err := h.sendAck(rc.imageID); err != nil {
			h.logTransportError("send ack", err)
			return stateReceiving, false
		}
		if h.Metric != nil {
			h.Metric.IncFrameSent(protocol.Ack.String())
		}
		return stateTerminal, true

	default:
		return stateReceiving, true
	}
}

func (h *Handler) sendIDResponse(id string) error {
	hdr := protocol.Encode(protocol.NewHeader(protocol.ImageIDResponse, 0, id))
	if h.Metric != nil {
		h.Metric.IncFrameSent(protocol.ImageIDResponse.String())
	}
	return h.Conn.SendExact(hdr[:])
}

func (h *Handler) sendAck(id string) error {
	hdr := protocol.Encode(protocol.NewHeader(protocol.Ack, 0, id))
	return h.Conn.SendExact(hdr[:])
}

func (h *Handler) logTransportError(what string, err error) {
	h.logEntry(what, err).Log()
}

func (h *Handler) logProtocolError(what string, err error) {
	h.logEntry(what, err).Log()
}

func (h *Handler) logEntry(msg string, err error) *logger.Entry {
	if h.Log == nil {
		return nil
	}
	remote := ""
	if addr := h.Conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	return h.Log.Entry(logger.ErrorLevel, msg).
		FieldAdd("remote", remote).
		ErrorAdd(err != nil, err)
}

// sanitizeFilename strips directory components so an artifact path can never
// escape its configured directory, per spec.md §4.5's validation duties.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.ReplaceAll(name, "..", "")
	if name == "" {
		name = "upload"
	}
	return name
}
