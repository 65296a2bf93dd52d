package publisher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"BlogPipeline/internal/domain"
)

// stubContentStore is an in-memory stand-in for the hosted content database.
type stubContentStore struct {
	nextID     int
	posts      map[string]domain.PostRecord // keyed by slug
	categories map[string]string            // slug -> id
	tags       map[string]string            // slug -> id
	links      map[string][]string          // post id -> tag ids
}

func newStubContentStore() *stubContentStore {
	return &stubContentStore{
		posts:      map[string]domain.PostRecord{},
		categories: map[string]string{},
		tags:       map[string]string{},
		links:      map[string][]string{},
	}
}

func (s *stubContentStore) id() string {
	s.nextID++
	return fmt.Sprintf("id-%d", s.nextID)
}

func (s *stubContentStore) SlugExists(_ context.Context, slug string) (bool, error) {
	_, ok := s.posts[slug]
	return ok, nil
}

func (s *stubContentStore) InsertPost(_ context.Context, post domain.PostRecord) (string, error) {
	s.posts[post.Slug] = post
	return s.id(), nil
}

func (s *stubContentStore) EnsureCategory(_ context.Context, _, slug string) (string, error) {
	if id, ok := s.categories[slug]; ok {
		return id, nil
	}
	id := s.id()
	s.categories[slug] = id
	return id, nil
}

func (s *stubContentStore) EnsureTag(_ context.Context, _, slug string) (string, error) {
	if id, ok := s.tags[slug]; ok {
		return id, nil
	}
	id := s.id()
	s.tags[slug] = id
	return id, nil
}

func (s *stubContentStore) LinkTags(_ context.Context, postID string, tagIDs []string) error {
	s.links[postID] = tagIDs
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testArticle() domain.RewrittenArticle {
	return domain.RewrittenArticle{
		Title:           "Ten Ways to Brew Better Coffee at Home",
		Slug:            "ten-ways-to-brew-better-coffee",
		ContentHTML:     "<p>" + strings.Repeat("coffee ", 200) + "</p>",
		Excerpt:         strings.Repeat("An excerpt about coffee. ", 5),
		MetaTitle:       "Ten Ways to Brew Better Coffee",
		MetaDescription: strings.Repeat("d", 130),
		MetaKeywords:    []string{"coffee", "brewing", "home"},
		Tags:            []string{"Coffee", "How To", "coffee"},
		SourceURL:       "https://example.com/coffee",
		CategoryHint:    "food-drink",
	}
}

func TestEnsureUniqueSlugSuffixes(t *testing.T) {
	store := newStubContentStore()
	ctx := context.Background()

	slug, err := EnsureUniqueSlug(ctx, store, "my-post")
	require.NoError(t, err)
	require.Equal(t, "my-post", slug)

	store.posts["my-post"] = domain.PostRecord{Slug: "my-post"}
	slug, err = EnsureUniqueSlug(ctx, store, "my-post")
	require.NoError(t, err)
	require.Equal(t, "my-post-2", slug)

	store.posts["my-post-2"] = domain.PostRecord{Slug: "my-post-2"}
	slug, err = EnsureUniqueSlug(ctx, store, "my-post")
	require.NoError(t, err)
	require.Equal(t, "my-post-3", slug)
}

func TestCategoryResolver(t *testing.T) {
	store := newStubContentStore()
	resolver := NewCategoryResolver(store, map[string]string{"food-drink": "Food & Drink"})
	ctx := context.Background()

	id, err := resolver.Resolve(ctx, "food-drink")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Contains(t, store.categories, "food-drink")

	// Same hint resolves to the same category.
	again, err := resolver.Resolve(ctx, "food-drink")
	require.NoError(t, err)
	require.Equal(t, id, again)

	// Unmapped hints fall back to a title-cased name.
	_, err = resolver.Resolve(ctx, "healthy-eating")
	require.NoError(t, err)
	require.Contains(t, store.categories, "healthy-eating")

	// No hint, no category.
	id, err = resolver.Resolve(ctx, "")
	require.NoError(t, err)
	require.Empty(t, id)
}

func TestPublishInsertsPost(t *testing.T) {
	store := newStubContentStore()
	pub := New(store, map[string]string{"food-drink": "Food & Drink"}, testLogger())

	slug, err := pub.Publish(context.Background(), testArticle(), "author-1", "published")
	require.NoError(t, err)
	require.Equal(t, "ten-ways-to-brew-better-coffee", slug)

	post, ok := store.posts[slug]
	require.True(t, ok)
	require.Equal(t, "author-1", post.AuthorID)
	require.Equal(t, "published", post.Status)
	require.NotNil(t, post.PublishedAt)
	require.Equal(t, store.categories["food-drink"], post.CategoryID)
	require.Positive(t, post.SEOScore)
	require.Positive(t, post.ReadingTime)

	// "Coffee" and "coffee" dedupe to one tag; "How To" is the second.
	require.Len(t, store.tags, 2)
}

func TestPublishDraftHasNoPublishedAt(t *testing.T) {
	store := newStubContentStore()
	pub := New(store, nil, testLogger())

	slug, err := pub.Publish(context.Background(), testArticle(), "", "draft")
	require.NoError(t, err)
	require.Nil(t, store.posts[slug].PublishedAt)
}

func TestPublishRejectsInvalidArticle(t *testing.T) {
	pub := New(newStubContentStore(), nil, testLogger())

	_, err := pub.Publish(context.Background(), domain.RewrittenArticle{Title: "No Body"}, "", "draft")
	require.Error(t, err)
}

func TestPublishFallsBackToTitleSlug(t *testing.T) {
	store := newStubContentStore()
	pub := New(store, nil, testLogger())

	// A slug that normalizes to nothing falls back to the title.
	article := testArticle()
	article.Title = "A Fallback Title"
	article.Slug = "!!!"

	slug, err := pub.Publish(context.Background(), article, "", "draft")
	require.NoError(t, err)
	require.Equal(t, "a-fallback-title", slug)
}
