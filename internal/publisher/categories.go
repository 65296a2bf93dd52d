package publisher

import (
	"context"
	"fmt"
	"strings"

	"BlogPipeline/internal/domain"
	"BlogPipeline/internal/ports"
)

// CategoryResolver maps a source's category hint to a category row in the
// content store, creating the category on first use.
type CategoryResolver struct {
	mappings map[string]string
	store    ports.ContentStore
}

func NewCategoryResolver(store ports.ContentStore, mappings map[string]string) *CategoryResolver {
	if mappings == nil {
		mappings = map[string]string{}
	}
	return &CategoryResolver{mappings: mappings, store: store}
}

// Resolve returns the category id for a hint, or "" when there is no hint.
// Unmapped hints fall back to a display name derived from the hint itself.
func (r *CategoryResolver) Resolve(ctx context.Context, hint string) (string, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return "", nil
	}

	name, ok := r.mappings[hint]
	if !ok {
		name = titleCase(strings.ReplaceAll(hint, "-", " "))
	}

	id, err := r.store.EnsureCategory(ctx, name, domain.Slugify(name))
	if err != nil {
		return "", fmt.Errorf("ensure category %q: %w", name, err)
	}
	return id, nil
}

// ensureTags resolves tag names to ids, deduplicating by slug. Blank names
// and names that slugify to nothing are skipped.
func ensureTags(ctx context.Context, store ports.ContentStore, names []string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	var ids []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		slug := domain.Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true

		id, err := store.EnsureTag(ctx, name, slug)
		if err != nil {
			return nil, fmt.Errorf("ensure tag %q: %w", name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
