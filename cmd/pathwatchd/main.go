// Command pathwatchd runs the network path observability daemon.
//
// # Usage
//
//	pathwatchd --target 1.1.1.1
//
// # Configuration
//
// Configuration can be provided via:
// - Command-line flags
// - Environment variables (see internal/config)
// - Config file (--config)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pilot-net/pathwatch/internal/config"
	"github.com/pilot-net/pathwatch/internal/daemon"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to config file")
		target     = flag.String("target", "", "Target IP or hostname to monitor")
		interval   = flag.String("interval", "", "Ping interval (e.g. 1s)")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
		logFormat  = flag.String("log-format", "text", "Log format: text or json")
		printVer   = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *printVer {
		fmt.Println("pathwatchd (development build)")
		os.Exit(0)
	}

	cfg := config.Default()

	if *configFile != "" {
		fileCfg, err := config.LoadFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config file: %v\n", err)
			os.Exit(1)
		}
		cfg = fileCfg
	}

	cfg.ApplyEnv()

	if *target != "" {
		cfg.TargetIP = *target
	}
	if *interval != "" {
		if d, err := time.ParseDuration(*interval); err == nil {
			cfg.Interval = d
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg, *logLevel, *logFormat)

	d, err := daemon.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize daemon", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting pathwatch", "target", cfg.TargetIP, "interval", cfg.Interval)

	if err := d.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("daemon exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("pathwatch shutdown complete")
}

// newLogger builds the daemon's structured logger, writing to
// ping_monitor.log in the configured log directory (truncated on start
// if LogTruncate is set), or to stderr when no log directory is set or
// the file cannot be opened.
func newLogger(cfg *config.Settings, levelFlag, format string) *slog.Logger {
	level := slog.LevelInfo
	switch levelFlag {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var out *os.File = os.Stderr
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err == nil {
			logPath := filepath.Join(cfg.LogDir, "ping_monitor.log")
			flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
			if cfg.LogTruncate {
				flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
			}
			if f, err := os.OpenFile(logPath, flags, 0o644); err == nil {
				out = f
			}
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}
