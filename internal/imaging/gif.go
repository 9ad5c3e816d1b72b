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

import "strings"

const (
	minDelayCentiseconds = 2
	maxDelayCentiseconds = 5000
)

// NormalizeDelays detects millisecond-encoded GIF delays and converts them
// to centiseconds, then clamps every value to [2, 5000] cs, per spec.md
// §4.3. The heuristic ("any delay >= 20 and divisible by 10 implies
// milliseconds") is applied across the whole array, not per-element.
func NormalizeDelays(delays []int) []int {
	assumeMS := false
	for _, d := range delays {
		if d >= 20 && d%10 == 0 {
			assumeMS = true
			break
		}
	}

	out := make([]int, len(delays))
	for i, d := range delays {
		cs := d
		if assumeMS {
			cs = (d + 5) / 10
		}
		if cs < minDelayCentiseconds {
			cs = minDelayCentiseconds
		}
		if cs > maxDelayCentiseconds {
			cs = maxDelayCentiseconds
		}
		out[i] = cs
	}
	return out
}

// gifOutputFilename builds "<image_id>_<filename>[.gif]", appending .gif
// when filename doesn't already end in it (case-insensitive), per spec.md
// §4.3 and §6.
func gifOutputFilename(imageID, filename string) string {
	name := imageID + "_" + filename
	if strings.HasSuffix(strings.ToLower(filename), ".gif") {
		return name
	}
	return name + ".gif"
}
