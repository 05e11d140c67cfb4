package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/fleetpulse/internal/adapters/http/api"
	app "github.com/okian/fleetpulse/internal/app"
	"github.com/okian/fleetpulse/internal/config"
	"github.com/okian/fleetpulse/internal/domain/cleaning"
	"github.com/okian/fleetpulse/pkg/logger"
	"github.com/okian/fleetpulse/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
	reportFilePermission      = 0o644
)

func main() {
	os.Exit(run())
}

func run() int {
	// Initialize logging
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	// The report may go to stdout, so logs go to stderr.
	if err := logger.Configure(cfg.LogFormat, os.Stderr); err != nil {
		_, _ = os.Stderr.WriteString("failed to configure logging: " + err.Error() + "\n")
		return 1
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "invalid configuration", logger.Error(err))
		return 1
	}

	go startSystemMetricsUpdater(ctx)

	code := 0
	res, err := svc.RunFiles(ctx, cfg.VehiclesPath, cfg.EventsPath)
	if err != nil {
		loggerInstance.Error(ctx, "pipeline failed", logger.Error(err))
		code = 1
	}
	if res != nil {
		if err := writeReport(cfg.ReportPath, res); err != nil {
			loggerInstance.Error(ctx, "failed to write report", logger.Error(err))
			code = 1
		}
	}

	if cfg.MetricsAddr != "" {
		if err := serveOps(ctx, cfg.MetricsAddr, svc, loggerInstance); err != nil {
			loggerInstance.Error(ctx, "http server failed", logger.Error(err))
			code = 1
		}
	}
	return code
}

// newService builds the pipeline service from configuration.
func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	policy, err := cleaning.ParsePolicy(cfg.ErrorPolicy)
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithErrorPolicy(policy),
		app.WithDistanceKey(cfg.DistanceKey),
		app.WithBatteryRange(cfg.BatteryMin, cfg.BatteryMax),
		app.WithDelimiter(cfg.DelimiterRune()),
		app.WithTimeLayouts(cfg.TimeLayouts...),
	), nil
}

// writeReport writes res as indented JSON to path, or stdout when path is empty.
func writeReport(path string, res *app.Result) error {
	if path == "" {
		return encodeReport(os.Stdout, res)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, reportFilePermission)
	if err != nil {
		return fmt.Errorf("open report: %w", err)
	}
	return writeAndClose(f, res)
}

// writeAndClose encodes res to wc and closes it, reporting close failures.
func writeAndClose(wc io.WriteCloser, res *app.Result) error {
	if err := encodeReport(wc, res); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}

func encodeReport(w io.Writer, res *app.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// serveOps exposes the operational API on addr until ctx is cancelled.
func serveOps(ctx context.Context, addr string, deps api.Dependencies, log logger.Logger) error {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(ctx, mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "serving operational api", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down http server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info(ctx, "http server stopped")
	return nil
}

// startSystemMetricsUpdater updates system metrics until ctx is cancelled.
func startSystemMetricsUpdater(ctx context.Context) {
	updateSystemMetrics()

	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
