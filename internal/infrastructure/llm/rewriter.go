// Package llm implements the article rewriter over three interchangeable
// backends: the hosted Anthropic API, a local Ollama server, and a spawned
// CLI agent process.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"BlogPipeline/internal/config"
	"BlogPipeline/internal/domain"
	"BlogPipeline/internal/ports"
)

// Provider names accepted by New.
const (
	ProviderOllama   = "ollama"
	ProviderClaude   = "claude"
	ProviderCLIAgent = "cli-agent"
)

const (
	// rewriteInputLimit caps how much raw text is sent to the backend.
	rewriteInputLimit = 5000
	// metadataInputLimit caps the rewritten body sent for metadata extraction.
	metadataInputLimit = 3000
)

// chatBackend is one request/response exchange with an LLM.
type chatBackend interface {
	chat(ctx context.Context, system, user string) (string, error)
}

// bodyCleaner is implemented by backends whose raw output needs
// post-processing before it can be treated as an HTML body.
type bodyCleaner interface {
	cleanBody(text string) string
}

// Rewriter runs the two-step rewrite protocol against a chat backend:
// first the body rewrite, then metadata extraction as JSON.
type Rewriter struct {
	backend chatBackend
	prompts config.PromptsConfig
	logger  *slog.Logger
}

var _ ports.Rewriter = (*Rewriter)(nil)

// New resolves a provider name to a configured rewriter. The mapping is fixed
// at startup; an unknown provider is a configuration failure.
func New(provider, model string, cfg *config.Config, logger *slog.Logger) (*Rewriter, error) {
	var backend chatBackend

	switch provider {
	case ProviderOllama:
		backend = newOllamaBackend(cfg.Ollama.BaseURL, orDefault(model, "llama3"))
	case ProviderClaude:
		if err := cfg.RequireAnthropic(); err != nil {
			return nil, err
		}
		backend = newClaudeBackend(cfg.Anthropic.APIKey, orDefault(model, "claude-sonnet-4-20250514"))
	case ProviderCLIAgent:
		// The model flag doubles as the CLI command for this provider.
		backend = newCLIAgentBackend(orDefault(model, "claude"), logger)
	default:
		return nil, fmt.Errorf("unknown rewrite provider: %s", provider)
	}

	return &Rewriter{backend: backend, prompts: cfg.Prompts, logger: logger}, nil
}

// Rewrite turns one raw article into a rewritten article. Backend transport
// errors abort the rewrite; metadata parse failures do not — fields fall back
// to the raw article's values.
func (r *Rewriter) Rewrite(ctx context.Context, raw domain.RawArticle) (domain.RewrittenArticle, error) {
	system := strings.TrimSpace(r.prompts.SystemPrompt)

	rewritePrompt := renderTemplate(r.prompts.RewritePrompt, map[string]string{
		"title":   raw.Title,
		"content": truncate(raw.ContentText, rewriteInputLimit),
	})
	body, err := r.backend.chat(ctx, system, rewritePrompt)
	if err != nil {
		return domain.RewrittenArticle{}, fmt.Errorf("rewrite body: %w", err)
	}
	if cleaner, ok := r.backend.(bodyCleaner); ok {
		body = cleaner.cleanBody(body)
	}

	metadataPrompt := renderTemplate(r.prompts.MetadataPrompt, map[string]string{
		"content": truncate(body, metadataInputLimit),
	})
	metaText, err := r.backend.chat(ctx, system, metadataPrompt)
	if err != nil {
		return domain.RewrittenArticle{}, fmt.Errorf("generate metadata: %w", err)
	}

	meta := ExtractMetadata(metaText)
	if meta.Empty() {
		r.logger.Warn("metadata extraction returned nothing, using raw fallbacks", "url", raw.SourceURL)
	}

	title := orDefault(meta.Title, raw.Title)
	article := domain.RewrittenArticle{
		Title:           title,
		Slug:            orDefault(meta.Slug, domain.Slugify(title)),
		ContentHTML:     body,
		Excerpt:         meta.Excerpt,
		MetaTitle:       meta.MetaTitle,
		MetaDescription: meta.MetaDescription,
		MetaKeywords:    meta.MetaKeywords,
		Tags:            meta.Tags,
		SourceURL:       raw.SourceURL,
		SourceName:      raw.SourceName,
		CategoryHint:    raw.CategoryHint,
		FeaturedImage:   raw.FeaturedImage,
	}
	// An undersized or untitled rewrite is a backend failure, not a result.
	if err := article.Validate(); err != nil {
		return domain.RewrittenArticle{}, fmt.Errorf("rewrite of %s: %w", raw.SourceURL, err)
	}
	return article, nil
}

// renderTemplate substitutes {name} placeholders.
func renderTemplate(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return strings.TrimSpace(out)
}

// truncate cuts s to at most limit bytes, backing up so a multi-byte rune is
// never split at the boundary.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
