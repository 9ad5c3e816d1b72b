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

import "testing"

func TestImageInfoRoundTrip(t *testing.T) {
	info := ImageInfo{
		Filename:       "cat.png",
		TotalSize:      5000,
		TotalChunks:    3,
		ProcessingType: ProcessingBoth,
		Format:         "png",
	}

	enc := EncodeImageInfo(info)
	if len(enc) != ImageInfoSize {
		t.Fatalf("expected %d bytes, got %d", ImageInfoSize, len(enc))
	}

	dec, err := DecodeImageInfo(enc[:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec != info {
		t.Errorf("round trip mismatch: got %+v, want %+v", dec, info)
	}
}

func TestNormalizeProcessingType(t *testing.T) {
	cases := map[uint8]uint8{
		1:   ProcessingHistogram,
		2:   ProcessingColor,
		3:   ProcessingBoth,
		0:   ProcessingBoth,
		4:   ProcessingBoth,
		255: ProcessingBoth,
	}
	for in, want := range cases {
		if got := NormalizeProcessingType(in); got != want {
			t.Errorf("NormalizeProcessingType(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestFormatPayloadRoundTrip(t *testing.T) {
	b := EncodeFormatPayload("jpg")
	if string(b) != "jpg\x00" {
		t.Fatalf("unexpected encoding: %q", b)
	}
	if got := DecodeFormatPayload(b); got != "jpg" {
		t.Errorf("decode = %q, want jpg", got)
	}
	if got := DecodeFormatPayload(nil); got != "" {
		t.Errorf("decode empty = %q, want empty", got)
	}
}

func TestDecodeImageInfoRejectsWrongSize(t *testing.T) {
	if _, err := DecodeImageInfo(make([]byte, ImageInfoSize-1)); err == nil {
		t.Fatal("expected error for short payload")
	}
}
