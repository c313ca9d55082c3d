package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	rtdebug "runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"chameneos/config"
	"chameneos/logging"
	"chameneos/rendezvous"
	"chameneos/report"
	"chameneos/store"
	"chameneos/telemetry"
)

// runBenchmark executes every configured group concurrently and reports them
// in configuration order.
func runBenchmark(cmd *cobra.Command, cfg config.Config, asJSON, noGC bool) error {
	logger := logging.New(logging.Config{
		Level:   cfg.LogLevel(),
		JSON:    cfg.Log.JSON,
		Service: "chameneos",
		Output:  cmd.ErrOrStderr(),
	})
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PHASE 0: telemetry
	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logging.DropError("TELEMETRY", err)
		}
	}()
	metrics, err := telemetry.NewDefaultMetrics()
	if err != nil {
		return err
	}

	coord := rendezvous.New(
		rendezvous.WithStrategy(cfg.StrategyValue()),
		rendezvous.WithBackoff(cfg.Backoff.SpinBudget, cfg.Backoff.Sleep),
		rendezvous.WithPinning(cfg.Pin),
		rendezvous.WithTap(cfg.TapCapacity),
		rendezvous.WithLogger(logger),
		rendezvous.WithMetrics(metrics),
	)

	// PHASE 1: settle the heap before timing anything
	runtime.GC()
	if noGC {
		old := rtdebug.SetGCPercent(-1)
		defer rtdebug.SetGCPercent(old)
	}

	// PHASE 2: all groups at once
	reports := make([]*report.Report, len(cfg.Groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, grp := range cfg.Groups {
		colors, err := grp.Parse()
		if err != nil {
			return err
		}
		g.Go(func() error {
			started := time.Now()
			res, err := coord.Run(gctx, colors, cfg.Meetings)
			if err != nil {
				return fmt.Errorf("group %s: %w", grp.Name, err)
			}
			r, err := report.New(grp.Name, started, res)
			if err != nil {
				return err
			}
			reports[i] = r
			logger.Info("group finished",
				"group", grp.Name,
				"run_id", r.ID,
				"actors", len(colors),
				"meetings", r.Meetings,
				"elapsed", r.Elapsed(),
				"cas_failures", r.CASFailures,
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// PHASE 3: report, persist, serve
	if err := printReports(cmd.OutOrStdout(), reports, asJSON); err != nil {
		return err
	}
	if cfg.StorePath != "" {
		if err := saveReports(ctx, cfg.StorePath, reports); err != nil {
			return err
		}
		logger.Debug("reports stored", "path", cfg.StorePath, "count", len(reports))
	}
	if cfg.MetricsAddr != "" {
		return serveMetrics(ctx, cfg.MetricsAddr, logger)
	}
	return nil
}

func printReports(w io.Writer, reports []*report.Report, asJSON bool) error {
	if !asJSON {
		return report.WriteBenchmark(w, reports)
	}
	for _, r := range reports {
		raw, err := report.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(raw, '\n')); err != nil {
			return err
		}
	}
	return nil
}

func saveReports(ctx context.Context, path string, reports []*report.Report) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	for _, r := range reports {
		if err := st.Save(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// serveMetrics exposes the prometheus handler until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, logger *logging.Logger) error {
	handler := telemetry.MetricsHandler()
	if handler == nil {
		return errors.New("metrics handler unavailable: prometheus exporter not initialised")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("serving metrics", "addr", addr)

	select {
	case err := <-errc:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logging.DropMessage("METRICS", "shutdown of "+addr+" incomplete: "+err.Error())
		return err
	}
	return nil
}
