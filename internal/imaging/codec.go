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

// Package imaging implements the image processing pipeline: color
// classification, histogram equalization, and the animated-GIF variants of
// both, dispatched by declared format.
package imaging

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
)

// Codec decodes and encodes image bytes. spec.md treats the concrete
// encoder/decoder as an external collaborator; this interface is the seam,
// satisfied by StdCodec below since no example repo in the pack supplies an
// alternative PNG/JPEG/GIF implementation (see DESIGN.md).
type Codec interface {
	Decode(format string, r io.Reader) (image.Image, error)
	DecodeGIF(r io.Reader) (*gif.GIF, error)
	Encode(format string, w io.Writer, img image.Image) error
	EncodeGIF(w io.Writer, g *gif.GIF) error
}

// StdCodec is the standard-library-backed Codec.
type StdCodec struct{}

// NormalizeFormat lower-cases the declared format and trims surrounding
// spaces; it does not map unknown values. Decode sniffs unknown formats and
// Encode writes them as PNG.
func NormalizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

// IsGIF reports whether a format routes to the animated pipeline.
func IsGIF(format string) bool {
	return NormalizeFormat(format) == "gif"
}

func (StdCodec) Decode(format string, r io.Reader) (image.Image, error) {
	switch NormalizeFormat(format) {
	case "jpg", "jpeg":
		return jpeg.Decode(r)
	case "png":
		return png.Decode(r)
	default:
		// Fallback path for unknown/"bin" formats: sniff via the generic
		// decoder, which tries every format registered by the image
		// package's blank imports plus png/jpeg/gif registered above.
		img, _, err := image.Decode(r)
		return img, err
	}
}

func (StdCodec) DecodeGIF(r io.Reader) (*gif.GIF, error) {
	return gif.DecodeAll(r)
}

func (StdCodec) Encode(format string, w io.Writer, img image.Image) error {
	switch NormalizeFormat(format) {
	case "jpg", "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	default:
		// png for "png" and every other/unknown format, to avoid lossy
		// re-encoding, per spec.md §4.3.
		return png.Encode(w, img)
	}
}

func (StdCodec) EncodeGIF(w io.Writer, g *gif.GIF) error {
	return gif.EncodeAll(w, g)
}

// outputExt returns the file extension that should be appended for a given
// declared format when building an artifact filename (static pipeline keeps
// the filename unchanged; only the GIF pipeline appends an extension, per
// spec.md §4.3).
func outputExt(format string) string {
	switch NormalizeFormat(format) {
	case "jpg":
		return ".jpg"
	case "jpeg":
		return ".jpeg"
	default:
		return ".png"
	}
}
