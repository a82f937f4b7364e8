package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/ctorbridge/bridge"
	"github.com/wippyai/ctorbridge/registry"
	"github.com/wippyai/ctorbridge/runtime"
)

// Config is read from the environment; flags override it.
type Config struct {
	LogLevel     string `env:"CTORBRIDGE_LOG_LEVEL"     envDefault:"warn"`
	OtelEndpoint string `env:"CTORBRIDGE_OTEL_ENDPOINT"`
	Parallel     int    `env:"CTORBRIDGE_PARALLEL"      envDefault:"4"`
	LogJSON      bool   `env:"CTORBRIDGE_LOG_JSON"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Parallel < 1 {
		return Config{}, fmt.Errorf("CTORBRIDGE_PARALLEL must be positive, got %d", cfg.Parallel)
	}
	return cfg, nil
}

func newLogger(cfg Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewDevelopmentConfig()
	if cfg.LogJSON {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// installLogger hands l to every package that logs.
func installLogger(l *zap.Logger) {
	registry.SetLogger(l.Named("registry"))
	bridge.SetLogger(l.Named("bridge"))
	runtime.SetLogger(l.Named("runtime"))
}
