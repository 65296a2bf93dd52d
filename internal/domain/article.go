package domain

import (
	"fmt"
	"time"
)

// MinContentLength is the minimum number of characters an article body must
// have, both for raw scraped text and for rewritten HTML.
const MinContentLength = 100

// RawArticle is an article exactly as scraped from a source, before any
// rewriting. Identity is SourceURL; a raw article is immutable once written.
type RawArticle struct {
	SourceURL     string    `json:"source_url"`
	SourceName    string    `json:"source_name"`
	Title         string    `json:"raw_title"`
	ContentHTML   string    `json:"raw_content_html"`
	ContentText   string    `json:"raw_content_text"`
	Tags          []string  `json:"raw_tags"`
	Author        string    `json:"raw_author"`
	PublishedDate string    `json:"raw_published_date"`
	FeaturedImage string    `json:"raw_featured_image"`
	CategoryHint  string    `json:"category_hint"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

// Valid reports whether the scraped article carries enough content to be
// worth keeping. Candidates failing this are dropped, not retried.
func (a RawArticle) Valid() bool {
	return a.Title != "" && len(a.ContentText) >= MinContentLength
}

// RewrittenArticle is the output of one rewriter invocation: a rewritten body
// plus generated SEO metadata, still tied back to its source URL.
type RewrittenArticle struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	ContentHTML     string   `json:"content_html"`
	Excerpt         string   `json:"excerpt"`
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
	MetaKeywords    []string `json:"meta_keywords"`
	Tags            []string `json:"tags"`
	SourceURL       string   `json:"source_url"`
	SourceName      string   `json:"source_name"`
	CategoryHint    string   `json:"category_hint"`
	FeaturedImage   string   `json:"featured_image"`
}

// Validate enforces the invariants the publish stage depends on. A rewritten
// article failing validation must be rejected before it is persisted.
func (a RewrittenArticle) Validate() error {
	if a.Title == "" {
		return fmt.Errorf("rewritten article has empty title")
	}
	if a.Slug == "" {
		return fmt.Errorf("rewritten article has empty slug")
	}
	if len(a.ContentHTML) < MinContentLength {
		return fmt.Errorf("rewritten content too short: %d chars (minimum %d)", len(a.ContentHTML), MinContentLength)
	}
	return nil
}

// PostRecord is the row shape inserted into the hosted posts table.
type PostRecord struct {
	Title           string
	Slug            string
	Content         string
	Excerpt         string
	FeaturedImage   string
	AuthorID        string
	CategoryID      string
	Status          string
	MetaTitle       string
	MetaDescription string
	MetaKeywords    []string
	ReadingTime     int
	SEOScore        int
	PublishedAt     *time.Time
}

// DedupStats summarizes the seen-URL table.
type DedupStats struct {
	Total     int
	Published int
	Pending   int
}
