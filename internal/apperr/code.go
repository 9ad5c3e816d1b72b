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

// Package apperr defines a coded, traceable error type shared across the
// protocol, transport, scheduler, processor and server packages.
package apperr

import "strconv"

// Code is a numeric error classification, loosely following HTTP status
// conventions so log lines and the wire ERROR frame can carry a stable
// code alongside a human message.
type Code uint16

const (
	Unknown Code = 0

	// Transport errors (1xx band)
	CodeTransportIO      Code = 100
	CodeTransportTimeout Code = 101
	CodeTransportEOF     Code = 102
	CodeTransportTLS     Code = 103
	CodeTransportClosed  Code = 104

	// Protocol violations (2xx band)
	CodeProtocolUnexpectedState Code = 200
	CodeProtocolBadLength       Code = 201
	CodeProtocolOverflow        Code = 202
	CodeProtocolUnknownType     Code = 203
	CodeProtocolBadValue        Code = 204

	// Resource exhaustion (3xx band)
	CodeResourceAlloc Code = 300
	CodeResourceLimit Code = 301

	// Processing failures (4xx band)
	CodeProcessDecode Code = 400
	CodeProcessEncode Code = 401
	CodeProcessWrite  Code = 402
	CodeProcessClassify Code = 403
	CodeProcessEqualize Code = 404

	// Configuration errors (5xx band), fatal at startup
	CodeConfigMissingTLS Code = 500
	CodeConfigBadDir     Code = 501
	CodeConfigInvalid    Code = 502

	// Scheduler errors (6xx band)
	CodeSchedulerClosed Code = 600
	CodeSchedulerFull   Code = 601
)

func (c Code) String() string {
	return strconv.Itoa(int(c))
}
