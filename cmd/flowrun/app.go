package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/flowrun"
	"github.com/aretw0/flowrun/internal/config"
	"github.com/aretw0/flowrun/internal/logging"
	"github.com/aretw0/flowrun/pkg/adapters/file"
	"github.com/aretw0/flowrun/pkg/adapters/memory"
	"github.com/aretw0/flowrun/pkg/adapters/process"
	"github.com/aretw0/flowrun/pkg/adapters/redis"
	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/aretw0/flowrun/pkg/observability"
	"github.com/aretw0/flowrun/pkg/persistence/middleware"
	"github.com/aretw0/flowrun/pkg/ports"
	"github.com/aretw0/flowrun/pkg/workflows/codereview"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// app bundles what every command needs: settings, logger and a ready engine.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	engine  *flowrun.Engine
	metrics *prometheus.Registry
	closers []func() error
}

// loadConfig reads the config file and applies flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("graphs") {
		cfg.GraphsDir, _ = flags.GetString("graphs")
	}
	if flags.Changed("steps") {
		cfg.StepsFile, _ = flags.GetString("steps")
	}
	if flags.Changed("redis-addr") {
		cfg.Redis.Addr, _ = flags.GetString("redis-addr")
	}
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		cfg.Addr, _ = flags.GetString("addr")
	}
	return cfg, nil
}

// newApp builds the engine from configuration: stores, persistence middleware,
// hooks, the built-in workflow and any graph files.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logging.New(level)}
	opts := []flowrun.Option{flowrun.WithLogger(a.logger)}
	if cfg.Strict {
		opts = append(opts, flowrun.WithStrictGraphs())
	}

	hooks := []domain.LifecycleHooks{observability.LoggingHooks(a.logger)}
	if cfg.MetricsEnabled {
		a.metrics = prometheus.NewRegistry()
		a.metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := observability.NewMetrics(a.metrics)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, m.Hooks())
	}
	opts = append(opts, flowrun.WithLifecycleHooks(observability.Combine(hooks...)))

	runStore, graphOpts, err := a.stores()
	if err != nil {
		return nil, err
	}
	opts = append(opts, graphOpts...)
	if runStore != nil {
		opts = append(opts, flowrun.WithRunStore(runStore))
	}

	a.engine = flowrun.New(opts...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := codereview.Install(ctx, a.engine); err != nil {
		return nil, err
	}
	if cfg.StepsFile != "" {
		steps, err := process.LoadSteps(cfg.StepsFile)
		if err != nil {
			return nil, err
		}
		runner := process.NewRunner(process.WithSteps(steps), process.WithBaseDir(filepath.Dir(cfg.StepsFile)))
		runner.Install(a.engine.Registry())
		a.logger.Info("process steps registered", "file", cfg.StepsFile, "steps", runner.Names())
	}
	if cfg.GraphsDir != "" {
		graphs, err := file.LoadDir(cfg.GraphsDir)
		if err != nil {
			return nil, err
		}
		for _, g := range graphs {
			if err := a.engine.RegisterGraph(ctx, g); err != nil {
				return nil, err
			}
		}
		a.logger.Info("graphs loaded", "dir", cfg.GraphsDir, "count", len(graphs))
	}
	return a, nil
}

// stores wires redis when configured and wraps the run store with the
// configured persistence middleware. A nil run store keeps the engine default.
func (a *app) stores() (ports.RunStore, []flowrun.Option, error) {
	var opts []flowrun.Option
	var mws []middleware.Middleware
	if len(a.cfg.PII.Patterns) > 0 {
		if err := middleware.CompilePatterns(a.cfg.PII.Patterns); err != nil {
			return nil, nil, err
		}
		mws = append(mws, middleware.NewPIIMiddleware(a.cfg.PII.Patterns))
	}
	if a.cfg.Encryption.Key != "" {
		enc, err := encryptionConfig(a.cfg.Encryption)
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}

	var base ports.RunStore
	if a.cfg.Redis.Enabled() {
		ropts := []redis.Option{redis.WithTTL(a.cfg.Redis.TTL)}
		if a.cfg.Redis.Prefix != "" {
			ropts = append(ropts, redis.WithPrefix(a.cfg.Redis.Prefix))
		}
		store := redis.New(a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB, ropts...)
		a.closers = append(a.closers, store.Close)
		opts = append(opts, flowrun.WithGraphStore(store.Graphs()))
		base = store.Runs()
		a.logger.Info("using redis stores", "addr", a.cfg.Redis.Addr)
	}

	if len(mws) == 0 {
		return base, opts, nil
	}
	if base == nil {
		base = memory.NewRunStore()
	}
	return middleware.Chain(base, mws...), opts, nil
}

func encryptionConfig(c config.EncryptionConfig) (middleware.EncryptionConfig, error) {
	key, err := middleware.DecodeKey(c.Key)
	if err != nil {
		return middleware.EncryptionConfig{}, fmt.Errorf("encryption.key: %w", err)
	}
	out := middleware.EncryptionConfig{ActiveKey: key}
	for i, k := range c.FallbackKeys {
		fk, err := middleware.DecodeKey(k)
		if err != nil {
			return out, fmt.Errorf("encryption.fallback_keys[%d]: %w", i, err)
		}
		out.FallbackKeys = append(out.FallbackKeys, fk)
	}
	return out, nil
}

// Close releases store connections.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// resolveGraph treats ref as a graph file when one exists at that path,
// otherwise as the id of a registered graph.
func (a *app) resolveGraph(ctx context.Context, ref string) (*domain.Graph, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return file.Load(ref)
	}
	return a.engine.Graph(ctx, ref)
}
