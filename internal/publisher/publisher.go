// Package publisher turns rewritten articles into posts in the hosted
// content store: slug allocation, category and tag resolution, SEO scoring
// and the final insert.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"BlogPipeline/internal/domain"
	"BlogPipeline/internal/ports"
)

const publishedStatus = "published"

type Publisher struct {
	store      ports.ContentStore
	categories *CategoryResolver
	logger     *slog.Logger
}

func New(store ports.ContentStore, categoryMappings map[string]string, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:      store,
		categories: NewCategoryResolver(store, categoryMappings),
		logger:     logger.With("component", "publisher"),
	}
}

// Publish inserts one rewritten article as a post and returns the slug it was
// published under. Tag linking is best-effort: a failure there leaves a valid
// post without tags and is logged, not returned.
func (p *Publisher) Publish(ctx context.Context, article domain.RewrittenArticle, authorID, status string) (string, error) {
	if err := article.Validate(); err != nil {
		return "", err
	}

	base := postSlug(article)
	if base == "" {
		return "", fmt.Errorf("article %q produced an empty slug", article.Title)
	}
	slug, err := EnsureUniqueSlug(ctx, p.store, base)
	if err != nil {
		return "", err
	}

	categoryID, err := p.categories.Resolve(ctx, article.CategoryHint)
	if err != nil {
		return "", err
	}

	post := domain.PostRecord{
		Title:           article.Title,
		Slug:            slug,
		Content:         article.ContentHTML,
		Excerpt:         article.Excerpt,
		FeaturedImage:   article.FeaturedImage,
		AuthorID:        authorID,
		CategoryID:      categoryID,
		Status:          status,
		MetaTitle:       article.MetaTitle,
		MetaDescription: article.MetaDescription,
		MetaKeywords:    article.MetaKeywords,
		ReadingTime:     ReadingTime(article.ContentHTML),
		SEOScore: SEOScore(SEOInput{
			Title:           article.Title,
			MetaDescription: article.MetaDescription,
			Content:         article.ContentHTML,
			FeaturedImage:   article.FeaturedImage,
			Keywords:        article.MetaKeywords,
			Excerpt:         article.Excerpt,
		}),
	}
	if status == publishedStatus {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}

	postID, err := p.store.InsertPost(ctx, post)
	if err != nil {
		return "", fmt.Errorf("insert post %q: %w", slug, err)
	}

	if len(article.Tags) > 0 {
		tagIDs, err := ensureTags(ctx, p.store, article.Tags)
		if err == nil && len(tagIDs) > 0 {
			err = p.store.LinkTags(ctx, postID, tagIDs)
		}
		if err != nil {
			p.logger.Warn("tag linking failed", "slug", slug, "error", err)
		}
	}

	p.logger.Info("published post",
		"slug", slug,
		"status", status,
		"seo_score", post.SEOScore,
		"reading_time", post.ReadingTime,
	)
	return slug, nil
}
