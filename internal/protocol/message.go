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

// Package protocol implements the wire framing shared by the imago server
// and client: a fixed 42-byte header plus an exact-length payload.
package protocol

// MessageType is the type byte of a frame header.
type MessageType uint8

const (
	// HELLO carries no payload; the image_id field is ignored.
	HELLO MessageType = iota + 1
	// IMAGE_ID_REQUEST is declared by the wire format but never produced or
	// consumed by this implementation; reserved per spec.md's Open Questions.
	ImageIDRequest
	// ImageIDResponse carries no payload; image_id is the assigned identifier.
	ImageIDResponse
	// ImageInfoMsg carries a serialized ImageInfo payload.
	ImageInfoMsg
	// ImageChunk carries raw image bytes.
	ImageChunk
	// ImageComplete carries a zero-terminated ASCII format string, optionally empty.
	ImageComplete
	// Ack carries no payload; image_id echoes the identifier.
	Ack
	// ErrorMsg carries a UTF-8 error string, optional.
	ErrorMsg
)

func (t MessageType) String() string {
	switch t {
	case HELLO:
		return "HELLO"
	case ImageIDRequest:
		return "IMAGE_ID_REQUEST"
	case ImageIDResponse:
		return "IMAGE_ID_RESPONSE"
	case ImageInfoMsg:
		return "IMAGE_INFO"
	case ImageChunk:
		return "IMAGE_CHUNK"
	case ImageComplete:
		return "IMAGE_COMPLETE"
	case Ack:
		return "ACK"
	case ErrorMsg:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Processing type values carried in ImageInfo.ProcessingType.
const (
	ProcessingHistogram uint8 = 1
	ProcessingColor      uint8 = 2
	ProcessingBoth       uint8 = 3
)

// NormalizeProcessingType coerces any value outside {1,2,3} to "both", per
// spec.md §4.5's validation duty on IMAGE_INFO.
func NormalizeProcessingType(v uint8) uint8 {
	switch v {
	case ProcessingHistogram, ProcessingColor, ProcessingBoth:
		return v
	default:
		return ProcessingBoth
	}
}

// Safe ceilings referenced by spec.md §6 for chunk and total-size bounds.
const (
	MaxChunkPayload = 1 << 20        // 1 MiB
	MaxImageSize    = 256 << 20      // 256 MiB default max total_size
)
