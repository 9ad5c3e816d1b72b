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

package protocol

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed wire size of a MessageHeader: 1 + 4 + 37 bytes.
const HeaderSize = 1 + 4 + IDFieldSize

// IDFieldSize is the wire size of the image_id field: a 36-char canonical
// UUID string plus a terminating zero byte.
const IDFieldSize = 37

// Header is the decoded form of the 42-byte frame header.
type Header struct {
	Type   MessageType
	Length uint32
	ID     [IDFieldSize]byte
}

// NewHeader builds a Header from a type, payload length and optional 36-char
// identifier. An empty id zero-fills the id field.
func NewHeader(t MessageType, length uint32, id string) Header {
	h := Header{Type: t, Length: length}
	copy(h.ID[:], id)
	h.ID[IDFieldSize-1] = 0
	return h
}

// IDString returns the identifier as a Go string, truncated at the first
// zero byte.
func (h Header) IDString() string {
	for i, b := range h.ID {
		if b == 0 {
			return string(h.ID[:i])
		}
	}
	return string(h.ID[:])
}

// Encode serializes the header into exactly HeaderSize bytes, with Length in
// network byte order and the id field zero-padded to 37 bytes.
func Encode(h Header) [HeaderSize]byte {
	var buf [HeaderSize]byte
	buf[0] = byte(h.Type)
	binary.BigEndian.PutUint32(buf[1:5], h.Length)
	copy(buf[5:], h.ID[:])
	buf[HeaderSize-1] = 0
	return buf
}

// Decode parses exactly HeaderSize bytes into a Header, converting Length to
// host order and forcing a terminating zero at the last byte of the id
// field, matching spec.md §4.1.
func Decode(b []byte) (Header, error) {
	if len(b) != HeaderSize {
		return Header{}, fmt.Errorf("protocol: header must be %d bytes, got %d", HeaderSize, len(b))
	}
	var h Header
	h.Type = MessageType(b[0])
	h.Length = binary.BigEndian.Uint32(b[1:5])
	copy(h.ID[:], b[5:])
	h.ID[IDFieldSize-1] = 0
	return h, nil
}
