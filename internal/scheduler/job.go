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

// Package scheduler implements the single-worker, smallest-job-first
// priority queue that sits between the connection handler and the image
// processor.
package scheduler

import "time"

// Job owns a complete image buffer and its metadata. Ownership transfers
// from the connection handler to the scheduler on a successful Enqueue, and
// from the scheduler to the processor when the job is popped. The zero
// value is not meaningful; use NewJob.
type Job struct {
	ImageID        string
	Filename       string
	Format         string
	ProcessingType uint8
	TotalSize      uint32
	Data           []byte

	enqueuedAt time.Time
}

// NewJob validates the invariant len(data) == total_size > 0 and returns a
// Job owning data.
func NewJob(imageID, filename, format string, processingType uint8, data []byte) (Job, bool) {
	if len(data) == 0 {
		return Job{}, false
	}
	return Job{
		ImageID:        imageID,
		Filename:       filename,
		Format:         format,
		ProcessingType: processingType,
		TotalSize:      uint32(len(data)),
		Data:           data,
	}, true
}
