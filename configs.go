package flowgraph

import (
	"context"
	"fmt"

	"github.com/flowgraph-io/flowgraph/internal/infrastructure/config"
	"github.com/flowgraph-io/flowgraph/internal/infrastructure/logger"
	"github.com/flowgraph-io/flowgraph/internal/infrastructure/storage"
	"github.com/flowgraph-io/flowgraph/internal/infrastructure/telemetry"
)

// Config carries process-level engine and infrastructure settings.
type Config = config.Config

// LoadConfig builds a Config from the environment.
func LoadConfig() *Config { return config.Load() }

// LoadConfigFile overlays a YAML file on the environment defaults.
func LoadConfigFile(path string) (*Config, error) { return config.LoadFile(path) }

// NewEngineFromConfig assembles a fully wired engine: logger, optional
// Postgres journal, optional Prometheus-exported telemetry. The
// returned shutdown function flushes and closes the attached
// infrastructure.
func NewEngineFromConfig(ctx context.Context, cfg *Config) (*Engine, func(context.Context) error, error) {
	log := logger.Setup(cfg.LogLevel)

	ecfg := EngineConfig{
		Method:         ExecMethod(cfg.Method),
		MaxParallelOps: cfg.MaxParallelOps,
		OpTimeout:      cfg.OpTimeout,
		RunTimeout:     cfg.RunTimeout,
		AnnotateErrors: cfg.AnnotateErrors,
		Logger:         log,
	}
	eng := NewEngine(ecfg)

	var shutdowns []func(context.Context) error

	if cfg.DatabaseDSN != "" {
		store := storage.NewBunStore(cfg.DatabaseDSN)
		if err := store.InitSchema(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to init journal schema: %w", err)
		}
		eng.AddObserver(storage.NewJournalObserver(store, log))
		shutdowns = append(shutdowns, func(context.Context) error { return store.Close() })
	}

	if cfg.MetricsEnabled {
		provider, err := telemetry.NewProvider(ctx, telemetry.DefaultConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init telemetry: %w", err)
		}
		eng.AddObserver(provider.Observer())
		shutdowns = append(shutdowns, provider.Shutdown)
	}

	shutdown := func(ctx context.Context) error {
		var firstErr error
		for _, fn := range shutdowns {
			if err := fn(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	return eng, shutdown, nil
}
