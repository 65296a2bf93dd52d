// Package supabase implements the content store over the Supabase REST
// interface (PostgREST). All access uses the service role key and therefore
// bypasses row-level security.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"BlogPipeline/internal/config"
	"BlogPipeline/internal/domain"
	"BlogPipeline/internal/ports"
)

const (
	postsTable      = "blog_posts"
	categoriesTable = "blog_categories"
	tagsTable       = "blog_tags"
	postTagsTable   = "blog_post_tags"
)

type Client struct {
	restURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.ContentStore = (*Client)(nil)

func NewClient(cfg config.SupabaseConfig, logger *slog.Logger) *Client {
	return &Client{
		restURL: strings.TrimSuffix(cfg.URL, "/") + "/rest/v1",
		apiKey:  cfg.ServiceRoleKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With("component", "supabase"),
	}
}

// idRow is the single-column shape every select=id query decodes into.
type idRow struct {
	ID string `json:"id"`
}

func (c *Client) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := url.Values{}
	query.Set("select", "id")
	query.Set("slug", "eq."+slug)
	query.Set("limit", "1")

	var rows []idRow
	if err := c.get(ctx, postsTable, query, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (c *Client) InsertPost(ctx context.Context, post domain.PostRecord) (string, error) {
	payload := map[string]any{
		"title":            post.Title,
		"slug":             post.Slug,
		"content":          post.Content,
		"excerpt":          post.Excerpt,
		"status":           post.Status,
		"meta_title":       post.MetaTitle,
		"meta_description": post.MetaDescription,
		"meta_keywords":    post.MetaKeywords,
		"reading_time":     post.ReadingTime,
		"seo_score":        post.SEOScore,
	}
	if post.FeaturedImage != "" {
		payload["featured_image"] = post.FeaturedImage
	}
	if post.AuthorID != "" {
		payload["author_id"] = post.AuthorID
	}
	if post.CategoryID != "" {
		payload["category_id"] = post.CategoryID
	}
	if post.PublishedAt != nil {
		payload["published_at"] = post.PublishedAt.Format(time.RFC3339)
	}

	var rows []idRow
	if err := c.post(ctx, postsTable, payload, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("insert into %s returned no rows", postsTable)
	}
	return rows[0].ID, nil
}

func (c *Client) EnsureCategory(ctx context.Context, name, slug string) (string, error) {
	return c.ensureRow(ctx, categoriesTable, name, slug)
}

func (c *Client) EnsureTag(ctx context.Context, name, slug string) (string, error) {
	return c.ensureRow(ctx, tagsTable, name, slug)
}

func (c *Client) LinkTags(ctx context.Context, postID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	links := make([]map[string]string, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		links = append(links, map[string]string{"post_id": postID, "tag_id": tagID})
	}
	return c.post(ctx, postTagsTable, links, nil)
}

// ensureRow finds a name/slug row by slug or creates it, returning its id.
func (c *Client) ensureRow(ctx context.Context, table, name, slug string) (string, error) {
	query := url.Values{}
	query.Set("select", "id")
	query.Set("slug", "eq."+slug)
	query.Set("limit", "1")

	var rows []idRow
	if err := c.get(ctx, table, query, &rows); err != nil {
		return "", err
	}
	if len(rows) > 0 {
		return rows[0].ID, nil
	}

	if err := c.post(ctx, table, map[string]string{"name": name, "slug": slug}, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("insert into %s returned no rows", table)
	}
	c.logger.Debug("created row", "table", table, "slug", slug)
	return rows[0].ID, nil
}

func (c *Client) get(ctx context.Context, table string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.restURL+"/"+table+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, table string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", table, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.restURL+"/"+table, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if out != nil {
		req.Header.Set("Prefer", "return=representation")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call content store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("content store error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
