package supabase

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"BlogPipeline/internal/config"
	"BlogPipeline/internal/domain"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(
		config.SupabaseConfig{URL: server.URL, ServiceRoleKey: "service-key"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestSlugExists(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/blog_posts", r.URL.Path)
		require.Equal(t, "service-key", r.Header.Get("apikey"))
		require.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))

		switch r.URL.Query().Get("slug") {
		case "eq.taken":
			io.WriteString(w, `[{"id": "p1"}]`)
		default:
			io.WriteString(w, `[]`)
		}
	}))
	ctx := context.Background()

	exists, err := client.SlugExists(ctx, "taken")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = client.SlugExists(ctx, "free")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestInsertPost(t *testing.T) {
	var got map[string]any
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rest/v1/blog_posts", r.URL.Path)
		require.Equal(t, "return=representation", r.Header.Get("Prefer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `[{"id": "post-1"}]`)
	}))

	id, err := client.InsertPost(context.Background(), domain.PostRecord{
		Title:    "A Post",
		Slug:     "a-post",
		Content:  "<p>body</p>",
		Status:   "draft",
		AuthorID: "author-1",
	})
	require.NoError(t, err)
	require.Equal(t, "post-1", id)

	require.Equal(t, "a-post", got["slug"])
	require.Equal(t, "author-1", got["author_id"])
	// Empty optionals stay out of the payload.
	require.NotContains(t, got, "category_id")
	require.NotContains(t, got, "published_at")
	require.NotContains(t, got, "featured_image")
}

func TestEnsureCategoryFindOrCreate(t *testing.T) {
	created := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/blog_categories", r.URL.Path)
		if r.Method == http.MethodGet {
			if created > 0 {
				io.WriteString(w, `[{"id": "cat-1"}]`)
			} else {
				io.WriteString(w, `[]`)
			}
			return
		}
		created++
		io.WriteString(w, `[{"id": "cat-1"}]`)
	}))
	ctx := context.Background()

	id, err := client.EnsureCategory(ctx, "Travel", "travel")
	require.NoError(t, err)
	require.Equal(t, "cat-1", id)
	require.Equal(t, 1, created)

	// Second call finds the existing row without inserting.
	id, err = client.EnsureCategory(ctx, "Travel", "travel")
	require.NoError(t, err)
	require.Equal(t, "cat-1", id)
	require.Equal(t, 1, created)
}

func TestLinkTags(t *testing.T) {
	var got []map[string]string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/blog_post_tags", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))

	err := client.LinkTags(context.Background(), "post-1", []string{"tag-1", "tag-2"})
	require.NoError(t, err)
	require.Equal(t, []map[string]string{
		{"post_id": "post-1", "tag_id": "tag-1"},
		{"post_id": "post-1", "tag_id": "tag-2"},
	}, got)
}

func TestErrorResponseSurfaced(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "permission denied"}`, http.StatusUnauthorized)
	}))

	_, err := client.SlugExists(context.Background(), "any")
	require.Error(t, err)
	require.Contains(t, err.Error(), "permission denied")
}
