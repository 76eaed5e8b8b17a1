package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/acadcom/internal/acad"
	"github.com/vietddude/acadcom/internal/core/config"
	"github.com/vietddude/acadcom/internal/infra/metrics"
	"github.com/vietddude/stylelog"
)

var (
	cfgPath     string
	isDebug     bool
	metricsAddr string

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "acadcom",
	Short: "Drive a running AutoCAD through its automation interface",
	Long: `acadcom attaches to AutoCAD over COM and runs small drawing utilities.
Every call into the application is retried while AutoCAD reports it is busy.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "acadcom.yaml", "config file (default is acadcom.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics and /health on this address")
}

func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	var err error
	cfg, err = config.LoadOrDefault(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		return fmt.Errorf("failed to load config: %w", err)
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	stylelog.InitDefault(&tint.Options{
		Level:      logLevel(isDebug, cfg.Logging.Level),
		TimeFormat: time.RFC3339,
	})
	return nil
}

func logLevel(debug bool, level string) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// sessionHealth is what /health reports. The application may only be
// called from the goroutine that attached to it, so the check reads the
// outcome of the last call instead of calling the application itself.
type sessionHealth struct {
	last atomic.Pointer[error]
}

func (h *sessionHealth) record(err error) {
	h.last.Store(&err)
}

func (h *sessionHealth) check() error {
	if p := h.last.Load(); p != nil {
		return *p
	}
	return errors.New("not attached")
}

// attach connects to the application.
var attach = acad.Connect

// withApplication attaches to the application described by cfg, optionally
// serves metrics, and runs fn. A user abort is not an error.
func withApplication(cfg *config.AppConfig, name string, fn func(app *acad.Application) error) error {
	health := &sessionHealth{}

	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, health.check)
		srv.Start()
		slog.Debug("Metrics server started", "addr", cfg.Metrics.Addr)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(ctx); err != nil {
				slog.Error("Error stopping metrics server", "error", err)
			}
		}()
	}

	app, release, err := attach(cfg)
	if err != nil {
		return fmt.Errorf("attach to %s: %w", cfg.Application.ProgID, err)
	}
	defer release()
	health.record(app.Ping())

	err = fn(app)
	if err != nil && !acad.IsUserAbort(err) {
		health.record(err)
		return fmt.Errorf("%s: %w", name, err)
	}
	health.record(nil)
	if err != nil {
		slog.Debug("Command aborted", "command", name, "reason", err)
	}
	return nil
}
