package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"BlogPipeline/internal/domain"
	"BlogPipeline/internal/infrastructure/storage"
	"BlogPipeline/internal/ports"
)

// Waterfalls of generic selectors, most specific first. Used when no
// per-source selector config exists.
var (
	contentSelectors = []string{
		"article .entry-content",
		"article .post-content",
		"article .article-body",
		"article .article__body",
		".post-body",
		"article .content",
		".entry-content",
		"article",
		"main",
	}
	titleSelectors  = []string{"h1.entry-title", "h1.post-title", "article h1", "h1"}
	tagSelectors    = []string{".tags a", ".post-tags a", ".article-tags a", `a[rel="tag"]`}
	imageSelectors  = []string{".featured-image img", "article img", ".hero-image img", "img"}
	authorSelectors = []string{".author-name", ".byline", ".author", `[rel="author"]`}
)

const directSourceName = "direct-url"

// DirectFetcher scrapes explicitly listed URLs with generic selectors. It is
// the fallback for pages the listing collector's configured selectors cannot
// parse, including JS-heavy sites served with a full HTML shell.
type DirectFetcher struct {
	client    *http.Client
	dedup     ports.DedupStore
	raw       *storage.RawStore
	rateLimit time.Duration
	logger    *slog.Logger
}

// NewDirectFetcher wires an HTTP client; client may be nil.
func NewDirectFetcher(client *http.Client, dedup ports.DedupStore, raw *storage.RawStore, logger *slog.Logger) *DirectFetcher {
	if client == nil {
		client = defaultClient()
	}
	return &DirectFetcher{
		client:    client,
		dedup:     dedup,
		raw:       raw,
		rateLimit: 2 * time.Second,
		logger:    logger,
	}
}

// FetchAll scrapes each unseen URL in order and returns the number of new raw
// articles written. One URL's failure does not stop the rest.
func (f *DirectFetcher) FetchAll(ctx context.Context, urls []string, categoryHint string) (int, error) {
	limiter := rate.NewLimiter(rate.Every(f.rateLimit), 1)

	saved := 0
	for _, rawURL := range urls {
		rawURL = strings.TrimSpace(rawURL)
		if rawURL == "" {
			continue
		}

		seen, err := f.dedup.IsSeen(ctx, rawURL)
		if err != nil {
			return saved, err
		}
		if seen {
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return saved, err
		}

		f.logger.Info("fetching", "url", rawURL)
		doc, err := fetchDocument(ctx, f.client, rawURL, browserUserAgent)
		if err != nil {
			f.logger.Warn("fetch failed", "url", rawURL, "error", err)
			continue
		}

		article := extractGeneric(doc, rawURL, categoryHint)

		if err := f.dedup.MarkSeen(ctx, rawURL, directSourceName); err != nil {
			return saved, err
		}

		if !article.Valid() {
			f.logger.Warn("article dropped", "url", rawURL, "title", article.Title, "text_len", len(article.ContentText))
			continue
		}

		name, err := f.raw.Save(article)
		if err != nil {
			return saved, err
		}
		f.logger.Info("saved raw article", "file", name)
		saved++
	}

	return saved, nil
}

// extractGeneric applies the selector waterfalls, stopping at the first
// content container yielding enough text.
func extractGeneric(doc *goquery.Document, pageURL, categoryHint string) domain.RawArticle {
	doc.Find(directNoiseSelector).Remove()

	title := ""
	for _, sel := range titleSelectors {
		if title = firstText(doc, sel); title != "" {
			break
		}
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	contentHTML := ""
	contentText := ""
	for _, sel := range contentSelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(el.Text())
		if len(text) >= domain.MinContentLength {
			if h, err := goquery.OuterHtml(el); err == nil {
				contentHTML = h
			}
			contentText = text
			break
		}
	}

	var tags []string
	for _, sel := range tagSelectors {
		if found := selectionTexts(doc, sel); len(found) > 0 {
			tags = found
			break
		}
	}

	author := ""
	for _, sel := range authorSelectors {
		if author = firstText(doc, sel); author != "" {
			break
		}
	}

	featuredImage := ""
	for _, sel := range imageSelectors {
		if src, ok := doc.Find(sel).First().Attr("src"); ok && src != "" {
			featuredImage = absoluteURL(pageURL, src)
			break
		}
	}

	publishedDate := ""
	timeEl := doc.Find("time").First()
	if timeEl.Length() > 0 {
		if dt, ok := timeEl.Attr("datetime"); ok && dt != "" {
			publishedDate = dt
		} else {
			publishedDate = strings.TrimSpace(timeEl.Text())
		}
	}

	return domain.RawArticle{
		SourceURL:     pageURL,
		SourceName:    directSourceName,
		Title:         title,
		ContentHTML:   contentHTML,
		ContentText:   contentText,
		Tags:          tags,
		Author:        author,
		PublishedDate: publishedDate,
		FeaturedImage: featuredImage,
		CategoryHint:  categoryHint,
		ScrapedAt:     time.Now().UTC(),
	}
}
