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

// Command imago-server runs the image-upload listener: it accepts
// connections, assigns identifiers, and schedules uploaded images onto the
// histogram-equalization and color-classification pipelines.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nabbar/imago/internal/config"
	"github.com/nabbar/imago/internal/imaging"
	"github.com/nabbar/imago/internal/logger"
	"github.com/nabbar/imago/internal/metrics"
	"github.com/nabbar/imago/internal/scheduler"
	"github.com/nabbar/imago/internal/server"
	"github.com/nabbar/imago/internal/transport"
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
		foreground bool
		daemon     bool
		pidFile    string
	)

	cmd := &cobra.Command{
		Use:   "imago-server",
		Short: "Accept image uploads and schedule them for processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("daemon") {
				foreground = !daemon
			}
			return run(configPath, foreground, pidFile)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the server configuration file")
	cmd.Flags().BoolVar(&foreground, "foreground", true, "run in the foreground (default); --daemon is the opposite")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "log only to the log file, not to stdout/stderr (the process does not fork or detach); overrides --foreground")
	cmd.Flags().StringVar(&pidFile, "pidfile", "", "write the process id to this file")

	return cmd
}

func run(configPath string, foreground bool, pidFile string) error {
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	log, err := logger.New(logger.Options{
		Level:    logger.ParseLevel(cfg.LogLevel),
		FilePath: cfg.LogFile,
		Stdout:   foreground,
		Stderr:   foreground,
	})
	if err != nil {
		return fmt.Errorf("startup: open log file: %w", err)
	}
	defer log.Close()

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
			return fmt.Errorf("startup: write pidfile: %w", err)
		}
		defer os.Remove(pidFile)
	}

	met := metrics.New()

	proc := &imaging.Processor{
		Dirs: imaging.Dirs{
			Histogram: cfg.HistogramDir,
			Red:       cfg.ColorsDir.Red,
			Green:     cfg.ColorsDir.Green,
			Blue:      cfg.ColorsDir.Blue,
		},
		Codec:  imaging.StdCodec{},
		Log:    log,
		Metric: met,
	}

	sched := scheduler.New(processorAdapter{proc}, log, met)
	sched.Init()
	defer sched.Shutdown()

	tlsCfg, err := buildTLS(cfg)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	ln := &server.Listener{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		TLS:          tlsCfg,
		Sched:        sched,
		Log:          log,
		Metric:       met,
		MaxImageSize: cfg.MaxImageSize,
		OnReload: func() error {
			_, err := config.LoadServerConfig(configPath)
			return err
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	grp, gctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		grp.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddr, met, log)
		})
	}

	grp.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sig)
		select {
		case <-sig:
			log.Entry(logger.InfoLevel, "shutdown signal received").Log()
			return ln.Shutdown()
		case <-gctx.Done():
			return ln.Shutdown()
		}
	})

	grp.Go(func() error {
		defer cancel()
		log.Entry(logger.InfoLevel, "server listening").FieldAdd("addr", ln.Addr).FieldAdd("tls", tlsCfg != nil).Log()
		return ln.Run()
	})

	return grp.Wait()
}

// processorAdapter bridges scheduler.Processor's queue-shaped Job to
// imaging.Processor's own Job, which carries TotalSize-free, already-owned
// image bytes. The two types stay distinct because the scheduler has no
// business knowing about image formats, and the processor has no business
// knowing about queue bookkeeping.
type processorAdapter struct {
	proc *imaging.Processor
}

func (a processorAdapter) Process(job scheduler.Job) {
	a.proc.Process(imaging.Job{
		ImageID:        job.ImageID,
		Filename:       job.Filename,
		Format:         job.Format,
		ProcessingType: job.ProcessingType,
		Data:           job.Data,
	})
}

func buildTLS(cfg config.ServerConfig) (*tls.Config, error) {
	if !cfg.TLSEnabled {
		return nil, nil
	}
	assets := transport.AssetsFromDir(cfg.TLSDir)
	return transport.ServerTLSConfig(assets)
}

func serveMetrics(ctx context.Context, addr string, met *metrics.Metrics, log *logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(met.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Entry(logger.ErrorLevel, "metrics server stopped").ErrorAdd(true, err).Log()
		return err
	}
	return nil
}
