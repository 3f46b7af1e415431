// jukehost is the producer-side demo host: it constructs a juke.Driver from
// environment configuration, starts the refresh loop, and optionally serves
// Prometheus metrics, the way api/cmd/helix-drm-manager wires a component
// package into a signal-aware main.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/jukevm/juke/pkg/input"
	"github.com/jukevm/juke/pkg/jukecfg"
	"github.com/jukevm/juke/pkg/juke"
	"github.com/jukevm/juke/pkg/metrics"
	"github.com/jukevm/juke/pkg/wire"
)

func main() {
	metricsAddr := pflag.String("metrics-addr", "", "override JUKE_METRICS_ADDR")
	logLevel := pflag.String("log-level", "", "override JUKE_LOG_LEVEL")
	pflag.Parse()

	cfg, err := jukecfg.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))

	counters := metrics.NewCounters(nil)
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics endpoint listening", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics endpoint failed", "err", err)
			}
		}()
	}

	injector, err := input.NewUinputInjector(logger)
	if err != nil {
		logger.Warn("uinput unavailable, input events will be logged and dropped", "err", err)
	}
	var inj input.Injector
	if injector != nil {
		inj = injector
		defer injector.Close()
	} else {
		inj = noopInjector{logger: logger}
	}

	driverCfg := juke.Config{
		FbSocket:    cfg.FbSocket,
		AudioSocket: cfg.AudioSocket,
		Audio: wire.AudioSettings{
			SampleRate: 48000,
			Channels:   2,
			Format:     wire.AudioFormatS16LE,
			RingFrames: 4096,
		},
	}

	driver := juke.New(driverCfg, inj, nil, logger, counters)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting jukehost", "fb_socket", cfg.FbSocket, "audio_socket", cfg.AudioSocket)
	if err := driver.Run(ctx); err != nil {
		logger.Error("driver exited with error", "err", err)
		os.Exit(1)
	}
	logger.Info("jukehost shutdown complete")
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// noopInjector logs every event instead of injecting it, used when
// /dev/uinput isn't available (e.g. running jukehost outside a VM).
type noopInjector struct{ logger *slog.Logger }

func (n noopInjector) MouseRel(dx, dy int32) error {
	n.logger.Debug("mouse_rel", "dx", dx, "dy", dy)
	return nil
}

func (n noopInjector) MouseAbs(x, y int32) error {
	n.logger.Debug("mouse_abs", "x", x, "y", y)
	return nil
}

func (n noopInjector) MouseButton(button uint8, pressed bool) error {
	n.logger.Debug("mouse_button", "button", button, "pressed", pressed)
	return nil
}
func (n noopInjector) Key(scancode int32, pressed bool) error {
	n.logger.Debug("key", "scancode", scancode, "pressed", pressed)
	return nil
}
func (n noopInjector) Sync() error { return nil }
