package scraper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractGenericSelectorWaterfall(t *testing.T) {
	html := `<html><head><title>Page Title</title></head><body>
		<script>var tracking = true;</script>
		<h1 class="entry-title">The Real Title</h1>
		<article>
			<div class="entry-content"><p>` + strings.Repeat("body ", 40) + `</p></div>
		</article>
		<div class="tags"><a>travel</a><a>summer</a></div>
		<span class="author-name">Jane Doe</span>
		<time datetime="2026-08-01">Aug 1</time>
	</body></html>`

	article := extractGeneric(docFromString(t, html), "https://example.com/p", "travel")

	require.Equal(t, "The Real Title", article.Title)
	require.Contains(t, article.ContentHTML, "entry-content")
	require.NotContains(t, article.ContentText, "tracking")
	require.Equal(t, []string{"travel", "summer"}, article.Tags)
	require.Equal(t, "Jane Doe", article.Author)
	require.Equal(t, "2026-08-01", article.PublishedDate)
	require.Equal(t, "travel", article.CategoryHint)
	require.True(t, article.Valid())
}

func TestExtractGenericTitleFallback(t *testing.T) {
	html := `<html><head><title>Only The Tab Title</title></head><body>
		<article><p>` + strings.Repeat("body ", 40) + `</p></article>
	</body></html>`

	article := extractGeneric(docFromString(t, html), "https://example.com/p", "")
	require.Equal(t, "Only The Tab Title", article.Title)
}

func TestExtractGenericSkipsThinContainers(t *testing.T) {
	// The entry-content match is too short; the waterfall must move on to
	// the article element that actually holds the body.
	html := `<html><body>
		<h1>Title</h1>
		<div class="entry-content">thin</div>
		<main><p>` + strings.Repeat("body ", 40) + `</p></main>
	</body></html>`

	article := extractGeneric(docFromString(t, html), "https://example.com/p", "")
	require.GreaterOrEqual(t, len(article.ContentText), 100)
}

func TestExtractGenericResolvesImageURL(t *testing.T) {
	html := `<html><body>
		<h1>Title</h1>
		<article><img src="/img/hero.jpg"><p>` + strings.Repeat("body ", 40) + `</p></article>
	</body></html>`

	article := extractGeneric(docFromString(t, html), "https://example.com/posts/p", "")
	require.Equal(t, "https://example.com/img/hero.jpg", article.FeaturedImage)
}

func TestFetchAllSkipsSeenAndEmptyURLs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/posts/p", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, articlePage("Direct Article", 60))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	dedup, raw := testStores(t)
	f := NewDirectFetcher(server.Client(), dedup, raw, discardLogger())
	f.rateLimit = time.Millisecond
	ctx := context.Background()

	urls := []string{"", "  ", server.URL + "/posts/p"}
	saved, err := f.FetchAll(ctx, urls, "lifestyle")
	require.NoError(t, err)
	require.Equal(t, 1, saved)

	names, err := raw.Names()
	require.NoError(t, err)
	require.Len(t, names, 1)

	article, err := raw.Load(names[0])
	require.NoError(t, err)
	require.Equal(t, "Direct Article", article.Title)
	require.Equal(t, "direct-url", article.SourceName)
	require.Equal(t, "lifestyle", article.CategoryHint)

	// Second pass is a no-op.
	saved, err = f.FetchAll(ctx, urls, "lifestyle")
	require.NoError(t, err)
	require.Equal(t, 0, saved)
}
