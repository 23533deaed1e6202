package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/6ixisgood/tbot/internal/app"
	"github.com/6ixisgood/tbot/internal/broker"
	"github.com/6ixisgood/tbot/internal/config"
	"github.com/6ixisgood/tbot/internal/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	return cfg.Build()
}

func main() {
	cfgPath := flag.String("config", "./settings.yaml", "path to settings yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("failed to load settings", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Warn("received signal, shutting down...")
		cancel()
	}()

	if err := metrics.Serve(ctx, cfg.Metrics.ListenAddr, nil, logger); err != nil {
		logger.Fatal("metrics server failed to start", zap.Error(err))
	}

	b, err := app.Bootstrap(cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}

	if err := b.Run(ctx); err != nil {
		var se *broker.ShortfallError
		if errors.As(err, &se) {
			for _, s := range se.Shortfalls {
				logger.Error("fund shortfall",
					zap.String("venue", s.Venue),
					zap.String("currency", s.Currency),
					zap.Float64("required", s.Required),
					zap.Float64("free", s.Free),
				)
			}
		}
		logger.Fatal("broker stopped", zap.Error(err))
	}
	logger.Info("tbot finished")
}
