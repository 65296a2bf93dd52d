// Package app wires the pipeline's dependencies. Construction is split in
// two: New builds everything local (config, logging, staging stores, dedup
// table), while the network-facing pieces are built on demand so that a
// missing credential only fails the commands that need it.
package app

import (
	"fmt"
	"log/slog"

	"BlogPipeline/internal/collector"
	"BlogPipeline/internal/config"
	"BlogPipeline/internal/infrastructure/llm"
	"BlogPipeline/internal/infrastructure/revalidate"
	"BlogPipeline/internal/infrastructure/scraper"
	"BlogPipeline/internal/infrastructure/storage"
	"BlogPipeline/internal/infrastructure/supabase"
	"BlogPipeline/internal/logging"
	"BlogPipeline/internal/ports"
	"BlogPipeline/internal/publisher"
	"BlogPipeline/internal/usecase"
)

type App struct {
	Cfg    *config.Config
	Logger *slog.Logger

	Dedup     *storage.DedupStore
	Raw       *storage.RawStore
	Rewritten *storage.RewrittenStore

	Registry *collector.Registry
	Direct   *scraper.DirectFetcher
	Pipeline *usecase.Pipeline
}

// New loads configuration rooted at baseDir and wires the local pieces.
func New(baseDir string) (*App, error) {
	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Logging.Level)

	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	dedup, err := storage.OpenDedupStore(cfg.DedupPath())
	if err != nil {
		return nil, err
	}
	raw := storage.NewRawStore(cfg.RawDir())
	rewritten := storage.NewRewrittenStore(cfg.RewrittenDir())

	registry := collector.NewRegistry()
	registry.Register(scraper.NewListingCollector(nil, dedup, raw, logger.With("component", "scraper")))

	return &App{
		Cfg:       cfg,
		Logger:    logger,
		Dedup:     dedup,
		Raw:       raw,
		Rewritten: rewritten,
		Registry:  registry,
		Direct:    scraper.NewDirectFetcher(nil, dedup, raw, logger.With("component", "fetcher")),
		Pipeline:  usecase.NewPipeline(cfg, dedup, raw, rewritten, logger),
	}, nil
}

// Close releases the dedup database handle.
func (a *App) Close() error {
	return a.Dedup.Close()
}

// NewRewriter builds the LLM rewriter for a provider/model pair.
func (a *App) NewRewriter(provider, model string) (ports.Rewriter, error) {
	return llm.New(provider, model, a.Cfg, a.Logger.With("component", "rewriter"))
}

// NewPublisher builds the content store publisher; fails without credentials.
func (a *App) NewPublisher() (*publisher.Publisher, error) {
	if err := a.Cfg.RequireSupabase(); err != nil {
		return nil, err
	}
	store := supabase.NewClient(a.Cfg.Supabase, a.Logger)
	return publisher.New(store, a.Cfg.CategoryMappings, a.Logger), nil
}

// NewRevalidator builds the site revalidation client; fails without a secret.
func (a *App) NewRevalidator() (ports.Revalidator, error) {
	if err := a.Cfg.RequireRevalidation(); err != nil {
		return nil, err
	}
	return revalidate.New(a.Cfg.Revalidation, a.Logger), nil
}
