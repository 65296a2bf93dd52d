package publisher

import (
	"context"
	"fmt"

	"BlogPipeline/internal/domain"
	"BlogPipeline/internal/ports"
)

// EnsureUniqueSlug returns base if no post uses it yet, otherwise the first
// free base-2, base-3, ... variant.
func EnsureUniqueSlug(ctx context.Context, store ports.ContentStore, base string) (string, error) {
	candidate := base
	for i := 2; ; i++ {
		exists, err := store.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// postSlug derives the canonical slug for a rewritten article: the generated
// slug when present, the title otherwise, both normalized.
func postSlug(article domain.RewrittenArticle) string {
	if slug := domain.Slugify(article.Slug); slug != "" {
		return slug
	}
	return domain.Slugify(article.Title)
}
