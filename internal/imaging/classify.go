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

import "image"

// Channel is the dominant RGB channel of an image.
type Channel uint8

const (
	Red Channel = iota
	Green
	Blue
)

func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	default:
		return "blue"
	}
}

// channelSums accumulates the per-pixel-row R/G/B sums across an image; used
// by both the static and animated classification paths so the tie-break
// rule lives in exactly one place (Dominant).
type channelSums struct {
	r, g, b uint64
}

func (s *channelSums) add(r, g, b uint32) {
	// image.At returns 16-bit-scaled channel values; downshift to 8-bit so
	// sums stay comparable across images decoded at different bit depths.
	s.r += uint64(r >> 8)
	s.g += uint64(g >> 8)
	s.b += uint64(b >> 8)
}

// Dominant picks the channel with the greatest sum, breaking ties red >
// green > blue (prefer the earlier channel on equality), per spec.md §4.3.
func (s channelSums) Dominant() Channel {
	dom := Red
	best := s.r
	if s.g > best {
		dom, best = Green, s.g
	}
	if s.b > best {
		dom = Blue
	}
	return dom
}

// ClassifyStatic sums each of the first three channels across all pixels of
// a decoded raster. Grayscale images (native channel count < 3) are treated
// as red-dominant, per spec.md §4.3.
func ClassifyStatic(img image.Image) Channel {
	if isGray(img) {
		return Red
	}

	var s channelSums
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			s.add(r, g, bl)
		}
	}
	return s.Dominant()
}

// isGray reports whether the image's native color model carries fewer than
// 3 channels (grayscale / grayscale+alpha), per spec.md's "c < 3" rule.
func isGray(img image.Image) bool {
	switch img.ColorModel() {
	case image.GrayModel, image.Gray16Model:
		return true
	default:
		return false
	}
}

// ClassifyFrames sums R, G, B over every pixel of every frame of an animated
// image, for the GIF pipeline's dominant-channel decision.
func ClassifyFrames(frames []*image.Paletted) Channel {
	var s channelSums
	for _, f := range frames {
		b := f.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := f.At(x, y).RGBA()
				s.add(r, g, bl)
			}
		}
	}
	return s.Dominant()
}
