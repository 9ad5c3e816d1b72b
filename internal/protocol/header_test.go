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
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	id := "123e4567-e89b-12d3-a456-426614174000"
	h := NewHeader(ImageInfoMsg, 314, id)

	enc := Encode(h)
	if len(enc) != HeaderSize {
		t.Fatalf("expected %d bytes, got %d", HeaderSize, len(enc))
	}

	dec, err := Decode(enc[:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if dec.Type != ImageInfoMsg {
		t.Errorf("type = %v, want %v", dec.Type, ImageInfoMsg)
	}
	if dec.Length != 314 {
		t.Errorf("length = %d, want 314", dec.Length)
	}
	if dec.IDString() != id {
		t.Errorf("id = %q, want %q", dec.IDString(), id)
	}
}

func TestHeaderZeroLengthPayloadLegal(t *testing.T) {
	h := NewHeader(HELLO, 0, "")
	enc := Encode(h)
	dec, err := Decode(enc[:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.Length != 0 {
		t.Errorf("length = %d, want 0", dec.Length)
	}
	if dec.IDString() != "" {
		t.Errorf("id = %q, want empty", dec.IDString())
	}
}

func TestHeaderLengthNetworkOrder(t *testing.T) {
	h := NewHeader(ImageChunk, 0x01020304, "")
	enc := Encode(h)
	if enc[1] != 0x01 || enc[2] != 0x02 || enc[3] != 0x03 || enc[4] != 0x04 {
		t.Fatalf("length not encoded big-endian: % x", enc[1:5])
	}
}

func TestDecodeRejectsWrongSize(t *testing.T) {
	if _, err := Decode(make([]byte, HeaderSize-1)); err == nil {
		t.Fatal("expected error for short buffer")
	}
	if _, err := Decode(make([]byte, HeaderSize+1)); err == nil {
		t.Fatal("expected error for long buffer")
	}
}

func TestIDFieldAlwaysTerminated(t *testing.T) {
	// A 36-char id fills ID[0:36]; ID[36] must still be forced to zero even
	// if a caller supplied something longer.
	long := make([]byte, 40)
	for i := range long {
		long[i] = 'a'
	}
	h := NewHeader(HELLO, 0, string(long))
	enc := Encode(h)
	dec, err := Decode(enc[:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.ID[IDFieldSize-1] != 0 {
		t.Fatalf("id field not terminated: % x", dec.ID)
	}
}
