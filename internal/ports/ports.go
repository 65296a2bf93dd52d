package ports

import (
	"context"

	"BlogPipeline/internal/domain"
)

// DedupStore tracks which source URLs have already been scraped or published.
// Single-writer: exactly one pipeline process per dedup table at a time.
type DedupStore interface {
	IsSeen(ctx context.Context, url string) (bool, error)
	// MarkSeen records a URL as scraped. Idempotent: the first insertion wins
	// and fixes scraped_at; later calls are no-ops.
	MarkSeen(ctx context.Context, url, source string) error
	// MarkPublished flips the published flag; no-op for unknown URLs.
	MarkPublished(ctx context.Context, url string) error
	Stats(ctx context.Context) (domain.DedupStats, error)
}

// Rewriter turns one raw article into one rewritten article with generated
// SEO metadata via an LLM backend.
type Rewriter interface {
	Rewrite(ctx context.Context, raw domain.RawArticle) (domain.RewrittenArticle, error)
}

// ContentStore is the hosted content database: posts, categories, tags and
// the post-tag join, accessed with find-or-create and insert operations.
type ContentStore interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	InsertPost(ctx context.Context, post domain.PostRecord) (string, error)
	// EnsureCategory finds a category by slug or creates it, returning its id.
	EnsureCategory(ctx context.Context, name, slug string) (string, error)
	// EnsureTag finds a tag by slug or creates it, returning its id.
	EnsureTag(ctx context.Context, name, slug string) (string, error)
	LinkTags(ctx context.Context, postID string, tagIDs []string) error
}

// Revalidator triggers downstream cache revalidation after publishing.
type Revalidator interface {
	Revalidate(ctx context.Context, slug string) (bool, error)
	RevalidateAll(ctx context.Context) (bool, error)
}
