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

// Command imago-client uploads one or more images to an imago-server
// listener, rendering per-file progress bars when attached to a terminal.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/spf13/cobra"

	"github.com/nabbar/imago/internal/client"
	"github.com/nabbar/imago/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		processing string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "imago-client [flags] file [file...]",
		Short: "Upload images to an imago-server listener",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(configPath, processing, dryRun, args)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the client configuration file")
	cmd.Flags().StringVar(&processing, "processing", "both", "processing type: histogram, color, or both")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate files and configuration without uploading")

	return cmd
}

func runUpload(configPath, processing string, dryRun bool, files []string) error {
	cfg, err := config.LoadClientConfig(configPath)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	processingType, err := parseProcessing(processing)
	if err != nil {
		return err
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
	}

	if dryRun {
		for _, f := range files {
			fh, err := os.Open(f)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			info, err := fh.Stat()
			_ = fh.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			if info.Size() <= 0 {
				return fmt.Errorf("%s: file is empty", f)
			}
		}
		fmt.Printf("dry run: would upload %d file(s) to %s:%d (processing=%s)\n", len(files), cfg.Host, cfg.Port, processing)
		return nil
	}

	sender := &client.Sender{Cfg: cfg.SenderConfig()}

	if isTerminal(os.Stdout) {
		return uploadWithBars(sender, processingType, files)
	}
	return uploadWithLogLines(sender, processingType, files)
}

func parseProcessing(v string) (uint8, error) {
	switch strings.ToLower(v) {
	case "histogram":
		return 1, nil
	case "color":
		return 2, nil
	case "both", "":
		return 3, nil
	default:
		return 0, fmt.Errorf("unknown --processing value %q (want histogram, color, or both)", v)
	}
}

// uploadWithBars uploads the files one after another, each with its own mpb
// progress bar, matching the teacher's ioprogress callback contract adapted here to a
// per-chunk fraction rather than a byte-count reader wrapper.
func uploadWithBars(sender *client.Sender, processingType uint8, files []string) error {
	p := mpb.New(mpb.WithWidth(60))
	var firstErr error

	for _, f := range files {
		name := f
		bar := p.AddBar(100,
			mpb.PrependDecorators(decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DidentRight})),
			mpb.AppendDecorators(decor.Percentage()),
		)

		err := sender.SendFile(f, processingType, func(message string, fraction float64) {
			bar.SetCurrent(int64(fraction * 100))
		})
		bar.SetCurrent(100)
		bar.Wait()

		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", f, err)
		}
	}

	p.Wait()
	return firstErr
}

func uploadWithLogLines(sender *client.Sender, processingType uint8, files []string) error {
	var firstErr error
	for _, f := range files {
		err := sender.SendFile(f, processingType, func(message string, fraction float64) {
			fmt.Printf("%s: %s (%.0f%%)\n", f, message, fraction*100)
		})
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", f, err)
		}
	}
	return firstErr
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
