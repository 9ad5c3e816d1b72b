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

// Package server drives the per-connection protocol state machine and the
// accept loop that feeds it, handing completed images to the scheduler.
package server

// state is the connection handler's position in the protocol, per
// spec.md §4.5's transition table. The zero value is the initial state.
type state uint8

const (
	stateAwaitHello state = iota
	stateAwaitInfo
	stateReceiving
	stateTerminal
)

func (s state) String() string {
	switch s {
	case stateAwaitHello:
		return "AwaitHello"
	case stateAwaitInfo:
		return "AwaitInfo"
	case stateReceiving:
		return "Receiving"
	case stateTerminal:
		return "Terminal"
	default:
		return "Unknown"
	}
}
