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

// Package client implements the upload side of the wire protocol: the
// mirror of internal/server's state machine, with connection-level retry.
package client

import (
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nabbar/imago/internal/apperr"
	"github.com/nabbar/imago/internal/protocol"
	"github.com/nabbar/imago/internal/transport"
)

// Config describes how to reach the server and how aggressively to retry,
// mirroring spec.md §6's recognized client options.
type Config struct {
	Host            string
	Port            int
	Protocol        string // "http" or "https"
	ServerName      string // TLS SNI/verification name; defaults to Host
	ChunkSize       int
	ConnectTimeout  time.Duration
	MaxRetries      int
	RetryBackoffMs  int
}

// DefaultChunkSize matches spec.md §4.6's default of 4 KiB.
const DefaultChunkSize = 4096

func (c Config) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) chunkSize() int {
	if c.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return c.ChunkSize
}

// Progress is invoked at upload start, after every chunk, and once more on
// completion or failure, per spec.md §4.6.
type Progress func(message string, fraction float64)

// Sender uploads files to one server, retrying each whole upload (not
// individual chunks) on failure, per spec.md §7's user-visible failure
// behavior.
type Sender struct {
	Cfg Config
}

// SendFile uploads one file with the requested processing type, making at
// most Cfg.MaxRetries attempts in total (at least one), each a full exchange
// with a fresh HELLO and identifier, with linear backoff between attempts.
// progress may be nil.
func (s *Sender) SendFile(path string, processingType uint8, progress Progress) error {
	if progress == nil {
		progress = func(string, float64) {}
	}

	processingType = protocol.NormalizeProcessingType(processingType)

	info, err := os.Stat(path)
	if err != nil {
		return apperr.Wrap(apperr.CodeResourceAlloc, "stat upload file", err)
	}
	if info.Size() <= 0 {
		return apperr.New(apperr.CodeProtocolBadValue, "refusing to upload an empty file")
	}

	attempts := s.Cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*s.Cfg.RetryBackoffMs) * time.Millisecond
			progress(fmt.Sprintf("retrying upload (attempt %d/%d)", attempt+1, attempts), 0)
			time.Sleep(backoff)
		}

		lastErr = s.sendOnce(path, uint32(info.Size()), processingType, progress)
		if lastErr == nil {
			progress("upload complete", 1.0)
			return nil
		}
	}

	progress(fmt.Sprintf("upload failed: %v", lastErr), 0)
	return lastErr
}

func (s *Sender) dial() (*transport.Conn, error) {
	timeout := s.Cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	raw, err := net.DialTimeout("tcp", s.Cfg.addr(), timeout)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeTransportIO, "dial server", err)
	}

	if strings.EqualFold(s.Cfg.Protocol, "https") {
		serverName := s.Cfg.ServerName
		if serverName == "" {
			serverName = s.Cfg.Host
		}
		tc := tls.Client(raw, transport.ClientTLSConfig(serverName, false))
		if err := tc.Handshake(); err != nil {
			_ = raw.Close()
			return nil, apperr.Wrap(apperr.CodeTransportTLS, "TLS handshake", err)
		}
		return transport.NewTLS(tc, timeout), nil
	}

	return transport.NewPlain(raw, timeout), nil
}

func (s *Sender) sendOnce(path string, totalSize uint32, processingType uint8, progress Progress) (retErr error) {
	conn, err := s.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	progress("connecting", 0)

	id, err := s.hello(conn)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return apperr.Wrap(apperr.CodeResourceAlloc, "open upload file", err)
	}
	defer f.Close()

	format := fileFormat(path)
	if err := s.sendInfo(conn, id, filepath.Base(path), totalSize, processingType, format); err != nil {
		return err
	}

	if err := s.sendBody(conn, id, f, totalSize, progress); err != nil {
		return err
	}

	if err := s.sendComplete(conn, id, format); err != nil {
		return err
	}

	return s.awaitAck(conn, id)
}

func (s *Sender) hello(conn *transport.Conn) (string, error) {
	hdr := protocol.Encode(protocol.NewHeader(protocol.HELLO, 0, ""))
	if err := conn.SendExact(hdr[:]); err != nil {
		return "", apperr.Wrap(apperr.CodeTransportIO, "send HELLO", err)
	}

	rb, outcome, err := conn.RecvExact(protocol.HeaderSize)
	if outcome != transport.Ok {
		return "", apperr.Wrap(apperr.CodeTransportIO, "recv IMAGE_ID_RESPONSE", err)
	}
	resp, err := protocol.Decode(rb)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeProtocolBadLength, "decode IMAGE_ID_RESPONSE", err)
	}
	if resp.Type != protocol.ImageIDResponse {
		return "", apperr.New(apperr.CodeProtocolUnexpectedState, "expected IMAGE_ID_RESPONSE")
	}
	return resp.IDString(), nil
}

func (s *Sender) sendInfo(conn *transport.Conn, id, filename string, totalSize uint32, processingType uint8, format string) error {
	chunkSize := s.Cfg.chunkSize()
	totalChunks := (totalSize + uint32(chunkSize) - 1) / uint32(chunkSize)

	payload := protocol.EncodeImageInfo(protocol.ImageInfo{
		Filename:       filename,
		TotalSize:      totalSize,
		TotalChunks:    totalChunks,
		ProcessingType: processingType,
		Format:         format,
	})
	hdr := protocol.Encode(protocol.NewHeader(protocol.ImageInfoMsg, protocol.ImageInfoSize, id))
	if err := conn.SendExact(hdr[:]); err != nil {
		return apperr.Wrap(apperr.CodeTransportIO, "send IMAGE_INFO header", err)
	}
	if err := conn.SendExact(payload[:]); err != nil {
		return apperr.Wrap(apperr.CodeTransportIO, "send IMAGE_INFO payload", err)
	}
	return nil
}

func (s *Sender) sendBody(conn *transport.Conn, id string, f *os.File, totalSize uint32, progress Progress) error {
	chunkSize := s.Cfg.chunkSize()
	buf := make([]byte, chunkSize)

	var sent uint32
	for sent < totalSize {
		want := chunkSize
		if remain := totalSize - sent; uint32(want) > remain {
			want = int(remain)
		}
		n, err := f.Read(buf[:want])
		if n == 0 && err != nil {
			return apperr.Wrap(apperr.CodeResourceAlloc, "read upload file", err)
		}

		hdr := protocol.Encode(protocol.NewHeader(protocol.ImageChunk, uint32(n), id))
		if err := conn.SendExact(hdr[:]); err != nil {
			return apperr.Wrap(apperr.CodeTransportIO, "send IMAGE_CHUNK header", err)
		}
		if err := conn.SendExact(buf[:n]); err != nil {
			return apperr.Wrap(apperr.CodeTransportIO, "send IMAGE_CHUNK payload", err)
		}

		sent += uint32(n)
		progress(fmt.Sprintf("uploading %s", filepath.Base(f.Name())), float64(sent)/float64(totalSize))
	}
	return nil
}

func (s *Sender) sendComplete(conn *transport.Conn, id, format string) error {
	payload := protocol.EncodeFormatPayload(format)
	hdr := protocol.Encode(protocol.NewHeader(protocol.ImageComplete, uint32(len(payload)), id))
	if err := conn.SendExact(hdr[:]); err != nil {
		return apperr.Wrap(apperr.CodeTransportIO, "send IMAGE_COMPLETE header", err)
	}
	if err := conn.SendExact(payload); err != nil {
		return apperr.Wrap(apperr.CodeTransportIO, "send IMAGE_COMPLETE payload", err)
	}
	return nil
}

func (s *Sender) awaitAck(conn *transport.Conn, id string) error {
	rb, outcome, err := conn.RecvExact(protocol.HeaderSize)
	if outcome != transport.Ok {
		return apperr.Wrap(apperr.CodeTransportIO, "recv ACK", err)
	}
	hdr, err := protocol.Decode(rb)
	if err != nil {
		return apperr.Wrap(apperr.CodeProtocolBadLength, "decode ACK", err)
	}
	if hdr.Type != protocol.Ack {
		return apperr.New(apperr.CodeProtocolUnexpectedState, "expected ACK")
	}
	if hdr.IDString() != id {
		return apperr.New(apperr.CodeProtocolBadValue, "ACK identifier mismatch")
	}
	return nil
}

// fileFormat derives the wire format string from a file's extension, lower
// cased and without the leading dot.
func fileFormat(path string) string {
	ext := filepath.Ext(path)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
