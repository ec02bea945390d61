package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/policyscope/policyscan/internal/enrich"
	"github.com/policyscope/policyscan/internal/pipeline"
	"github.com/policyscope/policyscan/internal/resilience"
	"github.com/policyscope/policyscan/internal/scrape"
	"github.com/policyscope/policyscan/internal/store"
	"github.com/policyscope/policyscan/pkg/oracle"
)

// scanEnv holds the initialized store, clients, and pipeline shared by the
// scan/batch/serve commands.
type scanEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *scanEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, the LLM oracle, the scraper, and the pipeline.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*scanEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	retry := resilience.FromRetryConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs, cfg.Retry.Multiplier, cfg.Retry.JitterFraction)

	var oracleClient oracle.Client
	if cfg.Anthropic.Key != "" {
		oracleClient = oracle.NewAnthropicOracle(oracle.AnthropicConfig{
			APIKey:         cfg.Anthropic.Key,
			Model:          cfg.Anthropic.Model,
			MaxTokens:      int64(cfg.Anthropic.MaxTokens),
			Temperature:    cfg.Anthropic.Temperature,
			Timeout:        time.Duration(cfg.Anthropic.TimeoutSecs) * time.Second,
			RequestsPerSec: cfg.Anthropic.RequestsPerSec,
			Retry:          retry,
			Breaker:        resilience.DefaultCircuitBreakerConfig(),
		})
	} else {
		zap.L().Warn("POLICYSCAN_ANTHROPIC_KEY not set, LLM fallback disabled")
	}

	scraper := scrape.NewLocalScraper(
		scrape.WithUserAgent(cfg.Scrape.UserAgent),
		scrape.WithMinWords(cfg.Scrape.MinContentWords),
		scrape.WithTimeout(time.Duration(cfg.Scrape.TimeoutSecs)*time.Second),
		scrape.WithRetry(retry),
	)

	enricher := enrich.NewEnricher(oracleClient, cfg.Enrich)
	p := pipeline.New(cfg, st, scraper, enricher)

	return &scanEnv{Store: st, Pipeline: p}, nil
}

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "open postgres store")
		}
		zap.L().Info("using postgres store")
		return st, nil
	case "", "sqlite":
		st, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "open sqlite store")
		}
		zap.L().Info("using sqlite store", zap.String("path", cfg.Store.DatabaseURL))
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
