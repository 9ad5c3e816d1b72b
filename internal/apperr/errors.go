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

package apperr

import (
	"fmt"
	"runtime"
)

// Error is the coded error value returned by core operations. It carries an
// optional parent so a low-level I/O error can be wrapped without losing the
// original cause.
type Error struct {
	code   Code
	msg    string
	parent error
	frame  runtime.Frame
}

// New creates a coded error, capturing the caller's frame.
func New(code Code, msg string) *Error {
	return &Error{
		code:  code,
		msg:   msg,
		frame: caller(2),
	}
}

// Wrap creates a coded error around an existing error.
func Wrap(code Code, msg string, parent error) *Error {
	if parent == nil {
		return New(code, msg)
	}
	return &Error{
		code:   code,
		msg:    msg,
		parent: parent,
		frame:  caller(2),
	}
}

func caller(skip int) runtime.Frame {
	pc := make([]uintptr, 1)
	n := runtime.Callers(skip+1, pc)
	if n == 0 {
		return runtime.Frame{}
	}
	frame, _ := runtime.CallersFrames(pc).Next()
	return frame
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.parent != nil {
		return fmt.Sprintf("[%s] %s: %s", e.code, e.msg, e.parent.Error())
	}
	return fmt.Sprintf("[%s] %s", e.code, e.msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.parent
}

// Code returns the numeric classification of the error.
func (e *Error) Code() Code {
	if e == nil {
		return Unknown
	}
	return e.code
}

// Frame returns the file/line where the error was constructed, useful for
// log entries.
func (e *Error) Frame() runtime.Frame {
	if e == nil {
		return runtime.Frame{}
	}
	return e.frame
}

// Is lets errors.Is match on the Code rather than on the message, so callers
// can test "is this a transport timeout" without string comparison.
func (e *Error) Is(target error) bool {
	o, ok := target.(*Error)
	if !ok || o == nil || e == nil {
		return false
	}
	return e.code == o.code
}
