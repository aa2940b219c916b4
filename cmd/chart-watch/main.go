package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	chartwatch "github.com/menta2k/chart-watch"
	"github.com/menta2k/chart-watch/internal/config"
	"github.com/menta2k/chart-watch/internal/server"
)

func main() {
	var cfgPath, envFile, preview string
	var autostart, debug bool

	flag.StringVar(&cfgPath, "config", config.GetConfigPath(), "config file path")
	flag.StringVar(&envFile, "env", "", ".env file with provider API keys (default: ./.env)")
	flag.StringVar(&preview, "preview", "", "write the latest captured frame to this PNG path")
	flag.BoolVar(&autostart, "start", false, "start monitoring immediately (requires a configured region)")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	)

	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		logger.Warn("using default config", "path", cfgPath, "err", err)
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "err", err)
		os.Exit(1)
	}

	creds := config.LoadCredentials(envFile)
	watcher := chartwatch.NewWithPreview(cfg, creds, logger, preview)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reload credentials and provider selection when the config file is
	// edited; the running loop picks them up on the next cycle.
	if _, err := os.Stat(cfgPath); err == nil {
		go func() {
			err := config.Watch(ctx, cfgPath, logger, func(next *config.Config) {
				watcher.Registry().SetCredentials(config.LoadCredentials(envFile))
				if next.Monitor.Region != nil {
					if err := watcher.Loop().SetRegion(*next.Monitor.Region); err != nil {
						logger.Warn("reloaded region rejected", "err", err)
					}
				}
				if err := watcher.Loop().SwitchProvider(next.Provider.Default); err != nil {
					logger.Warn("reloaded provider rejected", "err", err)
				}
				if err := watcher.Loop().SetInterval(next.Monitor.Interval()); err != nil {
					logger.Warn("reloaded interval rejected", "err", err)
				}
			})
			if err != nil {
				logger.Warn("config watcher stopped", "err", err)
			}
		}()
	}

	if autostart {
		if err := watcher.Loop().Start(); err != nil {
			logger.Error("autostart failed", "err", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(watcher.Loop(), watcher.Sink(), logger).Router(),
	}

	go func() {
		logger.Info("control surface listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	watcher.Loop().Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
}
