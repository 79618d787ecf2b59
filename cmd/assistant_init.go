package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/research-assistant/internal/assistant"
	"github.com/sells-group/research-assistant/internal/backend"
	"github.com/sells-group/research-assistant/internal/config"
	"github.com/sells-group/research-assistant/internal/extract"
	"github.com/sells-group/research-assistant/internal/monitoring"
	"github.com/sells-group/research-assistant/internal/prompt"
	"github.com/sells-group/research-assistant/internal/store"
)

// assistantEnv holds the initialized store, backend chain, metrics and
// service needed by the serve/summarize/chat commands.
type assistantEnv struct {
	Store   store.Store
	Chain   *backend.Chain
	Metrics *monitoring.Metrics
	Service *assistant.Service
}

// Close releases resources held by the environment.
func (e *assistantEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initStore opens the store selected by store.driver.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "memory", "":
		return store.NewMemory(), nil
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolConfig(cfg.Store))
	case "redis":
		return store.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func poolConfig(sc config.StoreConfig) *store.PoolConfig {
	return &store.PoolConfig{MaxConns: sc.MaxConns, MinConns: sc.MinConns}
}

// initAssistant validates config for mode, opens and migrates the store,
// builds the backend chain, and wires the service. Callers should defer
// env.Close().
func initAssistant(ctx context.Context, mode string) (*assistantEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	keys, err := assistant.KeysFor(cfg.Session.KeyStrategy)
	if err != nil {
		return nil, err
	}

	ext, err := extract.NewExtractor(cfg.Extract)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &assistantEnv{Store: st}

	if err := st.Migrate(ctx); err != nil {
		env.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	chain, err := backend.FromConfig(ctx, cfg)
	if err != nil {
		env.Close()
		return nil, eris.Wrap(err, "build backend chain")
	}

	env.Metrics = monitoring.NewMetrics()
	env.Chain = chain.WithObserver(env.Metrics)
	env.Service = assistant.New(st, env.Chain, prompt.NewBuilder(cfg.Prompt.SummaryMaxWords), ext,
		assistant.WithKeyGenerator(keys),
		assistant.WithFallbackObserver(env.Metrics),
	)

	zap.L().Info("assistant ready",
		zap.String("store", cfg.Store.Driver),
		zap.Strings("backends", env.Chain.Names()),
		zap.String("extract", cfg.Extract.Provider),
	)
	return env, nil
}
