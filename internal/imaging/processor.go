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
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"os"
	"path/filepath"
	"time"

	"github.com/nabbar/imago/internal/apperr"
	"github.com/nabbar/imago/internal/logger"
	"github.com/nabbar/imago/internal/metrics"
)

// Dirs names the four output directories, all required to exist before the
// server begins accepting, per spec.md §3.
type Dirs struct {
	Histogram string
	Red       string
	Green     string
	Blue      string
}

func (d Dirs) colorDir(c Channel) string {
	switch c {
	case Green:
		return d.Green
	case Blue:
		return d.Blue
	default:
		return d.Red
	}
}

// Job is the processor's view of a ProcessingJob: the complete image buffer
// plus the metadata needed to classify, equalize, and name artifacts.
type Job struct {
	ImageID        string
	Filename       string
	Format         string
	ProcessingType uint8
	Data           []byte
}

// Processor runs the static and animated pipelines and writes artifacts to
// disk. It has no internal locking: spec.md §4.3/§5 guarantee it is invoked
// only from the scheduler's single worker.
type Processor struct {
	Dirs   Dirs
	Codec  Codec
	Log    *logger.Logger
	Metric *metrics.Metrics
}

// Process runs whichever pipelines processing_type selects. If type is
// "both" and one pipeline fails, the other is still attempted, per spec.md
// §4.3. Every failure is logged; nothing here touches the wire — the ACK has
// already been sent by the connection handler.
func (p *Processor) Process(job Job) {
	start := time.Now()

	wantHistogram := job.ProcessingType == 1 || job.ProcessingType == 3
	wantColor := job.ProcessingType == 2 || job.ProcessingType == 3

	var err error
	if IsGIF(job.Format) {
		err = p.processGIF(job, wantHistogram, wantColor)
	} else {
		err = p.processStatic(job, wantHistogram, wantColor)
	}

	if p.Metric != nil {
		p.Metric.ObserveProcessingDuration(time.Since(start).Seconds())
	}
	p.logOutcome(job, err)
}

func (p *Processor) logOutcome(job Job, err error) {
	if p.Log == nil {
		return
	}
	lvl := logger.InfoLevel
	msg := "image processed"
	if err != nil {
		lvl = logger.ErrorLevel
		msg = "image processing failed"
	}
	p.Log.Entry(lvl, msg).
		FieldAdd("image_id", job.ImageID).
		FieldAdd("filename", job.Filename).
		FieldAdd("format", job.Format).
		ErrorAdd(err != nil, err).
		Log()
}

func (p *Processor) processStatic(job Job, wantHistogram, wantColor bool) error {
	img, _, err := decodeStatic(p.Codec, job.Format, job.Data)
	if err != nil {
		p.countFailure("decode")
		return apperr.Wrap(apperr.CodeProcessDecode, "decode static image", err)
	}

	var firstErr error

	if wantColor {
		dom := ClassifyStatic(img)
		path := artifactPath(p.Dirs.colorDir(dom), job.ImageID, job.Filename)
		if werr := p.encodeStaticTo(path, job.Format, img); werr != nil {
			p.countFailure("classify")
			firstErr = firstNonNil(firstErr, apperr.Wrap(apperr.CodeProcessWrite, "write color artifact", werr))
		}
	}

	if wantHistogram {
		eq := EqualizeStatic(img)
		path := artifactPath(p.Dirs.Histogram, job.ImageID, job.Filename)
		if werr := p.encodeStaticTo(path, job.Format, eq); werr != nil {
			p.countFailure("equalize")
			firstErr = firstNonNil(firstErr, apperr.Wrap(apperr.CodeProcessWrite, "write histogram artifact", werr))
		}
	}

	return firstErr
}

func decodeStatic(codec Codec, format string, data []byte) (image.Image, string, error) {
	img, err := codec.Decode(format, bytes.NewReader(data))
	return img, NormalizeFormat(format), err
}

func (p *Processor) encodeStaticTo(path, format string, img image.Image) error {
	return writeFile(path, func(f *os.File) error {
		return p.Codec.Encode(format, f, img)
	})
}

func (p *Processor) processGIF(job Job, wantHistogram, wantColor bool) error {
	g, err := p.Codec.DecodeGIF(bytes.NewReader(job.Data))
	if err != nil {
		p.countFailure("decode")
		return apperr.Wrap(apperr.CodeProcessDecode, "decode gif", err)
	}

	delays := NormalizeDelays(append([]int(nil), g.Delay...))
	outName := gifOutputFilename(job.ImageID, job.Filename)

	var firstErr error

	if wantColor {
		dom := ClassifyFrames(g.Image)
		dir := p.Dirs.colorDir(dom)
		path := filepath.Join(dir, outName)
		if werr := p.writeGIF(path, g.Image, delays, g.LoopCount); werr != nil {
			p.countFailure("classify")
			firstErr = firstNonNil(firstErr, apperr.Wrap(apperr.CodeProcessWrite, "write color gif", werr))
		}
	}

	if wantHistogram {
		rgbaFrames := EqualizeFrames(g.Image)
		paletted := make([]*image.Paletted, len(rgbaFrames))
		for i, rgba := range rgbaFrames {
			pal := g.Image[i].Palette
			paletted[i] = quantizeToPaletted(rgba, pal)
		}
		path := filepath.Join(p.Dirs.Histogram, outName)
		if werr := p.writeGIF(path, paletted, delays, g.LoopCount); werr != nil {
			p.countFailure("equalize")
			firstErr = firstNonNil(firstErr, apperr.Wrap(apperr.CodeProcessWrite, "write histogram gif", werr))
		}
	}

	return firstErr
}

func (p *Processor) writeGIF(path string, frames []*image.Paletted, delays []int, loop int) error {
	out := &gif.GIF{
		Image:     frames,
		Delay:     delays,
		LoopCount: loop,
	}
	return writeFile(path, func(f *os.File) error {
		return p.Codec.EncodeGIF(f, out)
	})
}

func firstNonNil(a, b error) error {
	if a != nil {
		return a
	}
	return b
}

func (p *Processor) countFailure(stage string) {
	if p.Metric != nil {
		p.Metric.IncFailure(stage)
	}
}

func artifactPath(dir, imageID, filename string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s", imageID, filename))
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f)
}
