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

package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// writerHook writes colorized lines to stdout/stderr when the destination is
// a terminal, matching the teacher's hookstdout/hookstderr split.
type writerHook struct {
	mu  sync.Mutex
	w   io.Writer
	lvl Level
	tty bool
}

func newWriterHook(w io.Writer, lvl Level, tty bool) *writerHook {
	return &writerHook{w: w, lvl: lvl, tty: tty}
}

func (h *writerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *writerHook) Fire(e *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	line := fmt.Sprintf("[%s] %s %s\n", e.Time.Format("2006-01-02 15:04:05"), levelTag(e.Level, h.tty), e.Message)
	if len(e.Data) > 0 {
		line = fmt.Sprintf("[%s] %s %s %v\n", e.Time.Format("2006-01-02 15:04:05"), levelTag(e.Level, h.tty), e.Message, e.Data)
	}
	_, err := io.WriteString(h.w, line)
	return err
}

func levelTag(lvl logrus.Level, tty bool) string {
	s := lvl.String()
	if !tty {
		return s
	}
	switch lvl {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return color.RedString(s)
	case logrus.WarnLevel:
		return color.YellowString(s)
	case logrus.DebugLevel:
		return color.CyanString(s)
	default:
		return color.GreenString(s)
	}
}

// fileHook appends plain `[YYYY-MM-DD HH:MM:SS] message` lines, per spec.md
// §6's filesystem layout for the log file.
type fileHook struct {
	mu sync.Mutex
	f  *os.File
}

func newFileHook(f *os.File, lvl Level) *fileHook {
	return &fileHook{f: f}
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(e *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	line := fmt.Sprintf("[%s] %s\n", e.Time.Format("2006-01-02 15:04:05"), e.Message)
	if len(e.Data) > 0 {
		line = fmt.Sprintf("[%s] %s %v\n", e.Time.Format("2006-01-02 15:04:05"), e.Message, e.Data)
	}
	_, err := h.f.WriteString(line)
	return err
}

func (h *fileHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.f.Close()
}
