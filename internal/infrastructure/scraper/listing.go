package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"BlogPipeline/internal/collector"
	"BlogPipeline/internal/config"
	"BlogPipeline/internal/domain"
	"BlogPipeline/internal/infrastructure/storage"
	"BlogPipeline/internal/ports"
)

// ListingCollector walks configured listing pages, extracts candidate article
// links, and scrapes each unseen article using the source's selector set.
type ListingCollector struct {
	client *http.Client
	dedup  ports.DedupStore
	raw    *storage.RawStore
	logger *slog.Logger
}

var _ collector.Collector = (*ListingCollector)(nil)

// NewListingCollector wires an HTTP client; client may be nil.
func NewListingCollector(client *http.Client, dedup ports.DedupStore, raw *storage.RawStore, logger *slog.Logger) *ListingCollector {
	if client == nil {
		client = defaultClient()
	}
	return &ListingCollector{client: client, dedup: dedup, raw: raw, logger: logger}
}

// Name identifies the strategy inside the registry.
func (c *ListingCollector) Name() string {
	return "listing"
}

// Collect crawls every start URL of the source, following pagination up to
// max_pages, and returns the number of new raw articles written. Fetch
// failures leave their URL unseen so it stays eligible for the next run.
func (c *ListingCollector) Collect(ctx context.Context, req collector.Request) (int, error) {
	src := req.Source
	limiter := rate.NewLimiter(rate.Every(time.Duration(src.RateLimit*float64(time.Second))), 1)

	saved := 0
	for _, start := range src.StartURLs {
		pageURL := start
		for page := 0; page < src.MaxPages && pageURL != ""; page++ {
			if req.Limit > 0 && saved >= req.Limit {
				return saved, nil
			}

			if err := limiter.Wait(ctx); err != nil {
				return saved, err
			}
			doc, err := fetchDocument(ctx, c.client, pageURL, crawlerUserAgent)
			if err != nil {
				c.logger.Warn("listing page failed", "url", pageURL, "error", err)
				break
			}

			links := extractLinks(doc, pageURL, src.Selectors.ArticleLinks)
			for _, link := range links {
				if req.Limit > 0 && saved >= req.Limit {
					return saved, nil
				}
				if !domainAllowed(link, src.AllowedDomains) {
					continue
				}

				seen, err := c.dedup.IsSeen(ctx, link)
				if err != nil {
					return saved, err
				}
				if seen {
					continue
				}

				n, err := c.scrapeArticle(ctx, limiter, link, src)
				if err != nil {
					return saved, err
				}
				saved += n
			}

			pageURL = nextPage(doc, pageURL, src.Pagination)
		}
	}

	return saved, nil
}

// scrapeArticle fetches and extracts one candidate. It returns 1 when a raw
// file was written, 0 when the candidate was skipped or dropped; only dedup
// or storage failures surface as errors.
func (c *ListingCollector) scrapeArticle(ctx context.Context, limiter *rate.Limiter, link string, src config.SourceConfig) (int, error) {
	if err := limiter.Wait(ctx); err != nil {
		return 0, err
	}

	doc, err := fetchDocument(ctx, c.client, link, crawlerUserAgent)
	if err != nil {
		// Transient: skipped without marking seen, retried next run.
		c.logger.Warn("article fetch failed", "url", link, "error", err)
		return 0, nil
	}

	article := extractArticle(doc, link, src)

	// The page was reachable and parsed; mark it seen even when validation
	// drops it below, so a permanently malformed page is never re-fetched.
	if err := c.dedup.MarkSeen(ctx, link, src.Name); err != nil {
		return 0, err
	}

	if !article.Valid() {
		c.logger.Debug("article dropped", "url", link, "title", article.Title, "text_len", len(article.ContentText))
		return 0, nil
	}

	name, err := c.raw.Save(article)
	if err != nil {
		return 0, err
	}
	c.logger.Info("saved raw article", "file", name, "source", src.Name)
	return 1, nil
}

// extractLinks collects candidate article URLs from a listing page. The link
// selector may match anchors directly or elements containing them.
func extractLinks(doc *goquery.Document, pageURL, selector string) []string {
	seen := map[string]struct{}{}
	var links []string

	add := func(href string) {
		abs := absoluteURL(pageURL, href)
		if abs == "" {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	}

	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			add(href)
			return
		}
		if href, ok := s.Find("a[href]").First().Attr("href"); ok {
			add(href)
		}
	})

	return links
}

// extractArticle pulls all configured fields from an article page. The result
// may fail Valid(); the caller decides what to do with it.
func extractArticle(doc *goquery.Document, pageURL string, src config.SourceConfig) domain.RawArticle {
	sel := src.Selectors

	var htmlParts []string
	doc.Find(sel.Content).Each(func(_ int, s *goquery.Selection) {
		if h, err := goquery.OuterHtml(s); err == nil {
			htmlParts = append(htmlParts, h)
		}
	})
	contentHTML := strings.Join(htmlParts, "\n")

	publishedDate, ok := doc.Find(sel.PublishedDate).First().Attr("datetime")
	if !ok || publishedDate == "" {
		publishedDate = firstText(doc, sel.PublishedDate)
	}

	featuredImage, _ := doc.Find(sel.FeaturedImage).First().Attr("src")
	if featuredImage != "" {
		featuredImage = absoluteURL(pageURL, featuredImage)
	}

	var tags []string
	if sel.Tags != "" {
		tags = selectionTexts(doc, sel.Tags)
	}

	return domain.RawArticle{
		SourceURL:     pageURL,
		SourceName:    src.Name,
		Title:         firstText(doc, sel.Title),
		ContentHTML:   contentHTML,
		ContentText:   htmlToText(contentHTML),
		Tags:          tags,
		Author:        firstText(doc, sel.Author),
		PublishedDate: publishedDate,
		FeaturedImage: featuredImage,
		CategoryHint:  src.CategoryHint,
		ScrapedAt:     time.Now().UTC(),
	}
}

func nextPage(doc *goquery.Document, pageURL, selector string) string {
	if selector == "" {
		return ""
	}
	href, ok := doc.Find(selector).First().Attr("href")
	if !ok {
		return ""
	}
	return absoluteURL(pageURL, href)
}
