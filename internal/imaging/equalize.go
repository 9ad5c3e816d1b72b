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

package imaging

import (
	"image"
	"image/color"
	"image/draw"
)

// histogram256 builds a 256-bin cumulative-distribution remap table for one
// channel's values across an image of n pixels, per spec.md §4.3.
type histogram256 struct {
	bins [256]uint64
	n    uint64
}

func (h *histogram256) add(v uint8) {
	h.bins[v]++
	h.n++
}

// remapTable computes floor(cdf[v] * 255 / N) for each of the 256 possible
// input values.
func (h *histogram256) remapTable() [256]uint8 {
	var table [256]uint8
	if h.n == 0 {
		for i := range table {
			table[i] = uint8(i)
		}
		return table
	}

	var cumulative uint64
	for v := 0; v < 256; v++ {
		cumulative += h.bins[v]
		table[v] = uint8((cumulative * 255) / h.n)
	}
	return table
}

// EqualizeStatic returns a new RGBA image with each of the R/G/B channels
// independently histogram-equalized; the alpha channel (and any channel
// index >= 4) is left untouched, per spec.md §4.3.
func EqualizeStatic(img image.Image) *image.RGBA {
	b := img.Bounds()
	src := image.NewRGBA(b)
	draw.Draw(src, b, img, b.Min, draw.Src)

	var histR, histG, histB histogram256
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := src.PixOffset(x, y)
			histR.add(src.Pix[i])
			histG.add(src.Pix[i+1])
			histB.add(src.Pix[i+2])
		}
	}

	tableR := histR.remapTable()
	tableG := histG.remapTable()
	tableB := histB.remapTable()

	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := src.PixOffset(x, y)
			out.Pix[i] = tableR[src.Pix[i]]
			out.Pix[i+1] = tableG[src.Pix[i+1]]
			out.Pix[i+2] = tableB[src.Pix[i+2]]
			out.Pix[i+3] = src.Pix[i+3]
		}
	}
	return out
}

// EqualizeFrames equalizes R/G/B independently within each frame (its own
// histogram per channel, not pooled across the animation), preserving
// alpha, and returns new RGBA frames at the same dimensions as the inputs.
// Per-frame (not joint) equalization matches the reference implementation's
// apply_histogram_equalization being called once per decoded frame.
func EqualizeFrames(frames []*image.Paletted) []*image.RGBA {
	out := make([]*image.RGBA, len(frames))
	for fi, f := range frames {
		b := f.Bounds()
		src := image.NewRGBA(b)
		draw.Draw(src, b, f, b.Min, draw.Src)
		out[fi] = EqualizeStatic(src)
	}
	return out
}

// quantizeToPaletted converts an equalized RGBA frame back to a paletted
// image suitable for GIF re-encoding, reusing the source frame's original
// palette so colors stay stable frame to frame.
func quantizeToPaletted(rgba *image.RGBA, palette color.Palette) *image.Paletted {
	b := rgba.Bounds()
	p := image.NewPaletted(b, palette)
	draw.Draw(p, b, rgba, b.Min, draw.Src)
	return p
}
