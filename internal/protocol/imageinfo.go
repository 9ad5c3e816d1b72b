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

const (
	filenameFieldSize = 256
	formatFieldSize   = 10
	// ImageInfoSize is the exact serialized size of the ImageInfo payload:
	// filename(256) + total_size(4) + total_chunks(4) + processing_type(1) + format(10).
	ImageInfoSize = filenameFieldSize + 4 + 4 + 1 + formatFieldSize
)

// ImageInfo is the decoded payload of an IMAGE_INFO frame.
type ImageInfo struct {
	Filename       string
	TotalSize      uint32
	TotalChunks    uint32
	ProcessingType uint8
	Format         string
}

// EncodeImageInfo serializes an ImageInfo into exactly ImageInfoSize bytes.
func EncodeImageInfo(info ImageInfo) [ImageInfoSize]byte {
	var buf [ImageInfoSize]byte

	copy(buf[0:filenameFieldSize], info.Filename)

	off := filenameFieldSize
	binary.BigEndian.PutUint32(buf[off:off+4], info.TotalSize)
	off += 4
	binary.BigEndian.PutUint32(buf[off:off+4], info.TotalChunks)
	off += 4
	buf[off] = info.ProcessingType
	off++
	copy(buf[off:off+formatFieldSize], info.Format)

	return buf
}

// DecodeImageInfo parses exactly ImageInfoSize bytes into an ImageInfo. The
// filename and format fields are truncated at their first zero byte.
func DecodeImageInfo(b []byte) (ImageInfo, error) {
	if len(b) != ImageInfoSize {
		return ImageInfo{}, fmt.Errorf("protocol: image_info payload must be %d bytes, got %d", ImageInfoSize, len(b))
	}

	var info ImageInfo
	info.Filename = cstring(b[0:filenameFieldSize])

	off := filenameFieldSize
	info.TotalSize = binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	info.TotalChunks = binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	info.ProcessingType = b[off]
	off++
	info.Format = cstring(b[off : off+formatFieldSize])

	return info, nil
}

// cstring returns the leading run of bytes up to the first zero byte, or the
// whole slice if no zero byte is present.
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// EncodeFormatPayload serializes an IMAGE_COMPLETE payload: the format as a
// zero-terminated ASCII string.
func EncodeFormatPayload(format string) []byte {
	return append([]byte(format), 0)
}

// DecodeFormatPayload parses an IMAGE_COMPLETE payload back to a format
// string, truncated at the first zero byte. An empty payload yields "".
func DecodeFormatPayload(b []byte) string {
	return cstring(b)
}
