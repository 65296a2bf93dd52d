// Package usecase sequences the pipeline stages over the ports. Each stage
// is independently runnable; the staging directories and the dedup table are
// the only state shared between them.
package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"BlogPipeline/internal/collector"
	"BlogPipeline/internal/config"
	"BlogPipeline/internal/domain"
	"BlogPipeline/internal/infrastructure/scraper"
	"BlogPipeline/internal/infrastructure/storage"
	"BlogPipeline/internal/ports"
	"BlogPipeline/internal/publisher"
)

// StageSummary counts one stage's outcomes. Failed counts articles or
// sources that errored; the stage itself still completes.
type StageSummary struct {
	Processed int
	Failed    int
}

// StatusReport is a point-in-time view of the pipeline state.
type StatusReport struct {
	Dedup           domain.DedupStats
	RawFiles        int
	AwaitingRewrite int
	AwaitingPublish int
}

type Pipeline struct {
	cfg       *config.Config
	dedup     ports.DedupStore
	raw       *storage.RawStore
	rewritten *storage.RewrittenStore
	logger    *slog.Logger
}

func NewPipeline(cfg *config.Config, dedup ports.DedupStore, raw *storage.RawStore, rewritten *storage.RewrittenStore, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		dedup:     dedup,
		raw:       raw,
		rewritten: rewritten,
		logger:    logger.With("component", "pipeline"),
	}
}

// Scrape runs the configured sources, or just the named one. A source whose
// collector errors counts as failed without stopping the others; Processed
// sums the new raw articles written.
func (p *Pipeline) Scrape(ctx context.Context, registry *collector.Registry, sourceName string, limit int) (StageSummary, error) {
	sources := p.cfg.Sources
	if sourceName != "" {
		src, err := p.cfg.SourceByName(sourceName)
		if err != nil {
			return StageSummary{}, err
		}
		sources = []config.SourceConfig{src}
	}
	if len(sources) == 0 {
		return StageSummary{}, fmt.Errorf("no sources configured")
	}

	var summary StageSummary
	for _, src := range sources {
		c, err := registry.Resolve(src.Strategy)
		if err != nil {
			p.logger.Error("source skipped", "source", src.Name, "error", err)
			summary.Failed++
			continue
		}

		p.logger.Info("scraping source", "source", src.Name, "strategy", src.Strategy)
		n, err := c.Collect(ctx, collector.Request{Source: src, Limit: limit})
		summary.Processed += n
		if err != nil {
			p.logger.Error("source failed", "source", src.Name, "error", err)
			summary.Failed++
		}
	}
	return summary, nil
}

// Fetch scrapes explicitly listed URLs with the generic selector waterfalls.
func (p *Pipeline) Fetch(ctx context.Context, fetcher *scraper.DirectFetcher, urls []string, categoryHint string) (int, error) {
	return fetcher.FetchAll(ctx, urls, categoryHint)
}

// Rewrite runs the rewriter over raw articles that have no rewritten
// counterpart yet. One article's failure does not stop the rest; a failed
// article stays pending for the next run.
func (p *Pipeline) Rewrite(ctx context.Context, rewriter ports.Rewriter, limit int) (StageSummary, error) {
	names, err := storage.PendingRewrites(p.raw, p.rewritten)
	if err != nil {
		return StageSummary{}, err
	}
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	var summary StageSummary
	for _, name := range names {
		raw, err := p.raw.Load(name)
		if err != nil {
			p.logger.Error("raw article unreadable", "file", name, "error", err)
			summary.Failed++
			continue
		}

		p.logger.Info("rewriting", "file", name, "title", raw.Title)
		article, err := rewriter.Rewrite(ctx, raw)
		if err != nil {
			p.logger.Error("rewrite failed", "file", name, "error", err)
			summary.Failed++
			continue
		}

		// Invalid output must never reach the staging area: a persisted file
		// would leave the publish stage failing on it run after run.
		if err := article.Validate(); err != nil {
			p.logger.Error("rewrite rejected", "file", name, "error", err)
			summary.Failed++
			continue
		}

		if err := p.rewritten.Save(name, article); err != nil {
			p.logger.Error("save rewritten article", "file", name, "error", err)
			summary.Failed++
			continue
		}
		summary.Processed++
	}
	return summary, nil
}

// Publish inserts pending rewritten articles as posts and returns the slugs
// published this run. A published article is marked in the dedup table and
// its staging file archived; failures of those two bookkeeping steps are
// logged but do not undo the publish.
func (p *Pipeline) Publish(ctx context.Context, pub *publisher.Publisher, authorID, status string, limit int) (StageSummary, []string, error) {
	names, err := p.rewritten.Pending()
	if err != nil {
		return StageSummary{}, nil, err
	}
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	var summary StageSummary
	var slugs []string
	for _, name := range names {
		article, err := p.rewritten.Load(name)
		if err != nil {
			p.logger.Error("rewritten article unreadable", "file", name, "error", err)
			summary.Failed++
			continue
		}

		slug, err := pub.Publish(ctx, article, authorID, status)
		if err != nil {
			p.logger.Error("publish failed", "file", name, "error", err)
			summary.Failed++
			continue
		}

		if article.SourceURL != "" {
			if err := p.dedup.MarkPublished(ctx, article.SourceURL); err != nil {
				p.logger.Warn("mark published failed", "url", article.SourceURL, "error", err)
			}
		}
		if err := p.rewritten.Archive(name); err != nil {
			p.logger.Warn("archive failed", "file", name, "error", err)
		}

		slugs = append(slugs, slug)
		summary.Processed++
	}
	return summary, slugs, nil
}

// RevalidateSlugs asks the site to refresh each published slug's pages, then
// the listing pages once for the whole batch. Revalidation is advisory;
// failures are logged and do not fail the run.
func (p *Pipeline) RevalidateSlugs(ctx context.Context, rev ports.Revalidator, slugs []string) {
	for _, slug := range slugs {
		ok, err := rev.Revalidate(ctx, slug)
		if err != nil {
			p.logger.Warn("revalidation failed", "slug", slug, "error", err)
			continue
		}
		if !ok {
			p.logger.Warn("site declined revalidation", "slug", slug)
		}
	}
	if len(slugs) > 0 {
		if _, err := rev.RevalidateAll(ctx); err != nil {
			p.logger.Warn("listing revalidation failed", "error", err)
		}
	}
}

// Status reports staging and dedup counts.
func (p *Pipeline) Status(ctx context.Context) (StatusReport, error) {
	stats, err := p.dedup.Stats(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	rawCount, err := p.raw.Count()
	if err != nil {
		return StatusReport{}, err
	}
	pendingRewrite, err := storage.PendingRewrites(p.raw, p.rewritten)
	if err != nil {
		return StatusReport{}, err
	}
	pendingPublish, err := p.rewritten.Count()
	if err != nil {
		return StatusReport{}, err
	}

	return StatusReport{
		Dedup:           stats,
		RawFiles:        rawCount,
		AwaitingRewrite: len(pendingRewrite),
		AwaitingPublish: pendingPublish,
	}, nil
}
