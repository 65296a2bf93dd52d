package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"BlogPipeline/internal/config"
	"BlogPipeline/internal/domain"
)

// scriptedBackend returns canned responses in call order.
type scriptedBackend struct {
	responses []string
	prompts   []string
	err       error
}

func (b *scriptedBackend) chat(_ context.Context, _, user string) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	b.prompts = append(b.prompts, user)
	if len(b.responses) == 0 {
		return "", fmt.Errorf("no scripted response left")
	}
	resp := b.responses[0]
	b.responses = b.responses[1:]
	return resp, nil
}

func testRewriter(backend chatBackend) *Rewriter {
	cfg := config.PromptsConfig{
		SystemPrompt:   "system",
		RewritePrompt:  "Rewrite {title}:\n{content}",
		MetadataPrompt: "Metadata for:\n{content}",
	}
	return &Rewriter{
		backend: backend,
		prompts: cfg,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testRaw() domain.RawArticle {
	return domain.RawArticle{
		SourceURL:    "https://example.com/coffee",
		SourceName:   "example-blog",
		Title:        "Brewing Coffee",
		ContentText:  strings.Repeat("coffee ", 50),
		CategoryHint: "food-drink",
	}
}

func TestRewriteTwoStepProtocol(t *testing.T) {
	body := "<p>" + strings.Repeat("rewritten ", 20) + "</p>"
	backend := &scriptedBackend{responses: []string{
		body,
		`{"title": "Better Coffee", "slug": "better-coffee", "tags": ["coffee"]}`,
	}}

	article, err := testRewriter(backend).Rewrite(context.Background(), testRaw())
	require.NoError(t, err)

	require.Equal(t, "Better Coffee", article.Title)
	require.Equal(t, "better-coffee", article.Slug)
	require.Equal(t, body, article.ContentHTML)
	require.Equal(t, []string{"coffee"}, article.Tags)
	require.Equal(t, "https://example.com/coffee", article.SourceURL)
	require.Equal(t, "food-drink", article.CategoryHint)

	// First prompt carries the raw content, second the rewritten body.
	require.Len(t, backend.prompts, 2)
	require.Contains(t, backend.prompts[0], "Brewing Coffee")
	require.Contains(t, backend.prompts[1], "rewritten")
}

func TestRewriteFallsBackWhenMetadataUnparseable(t *testing.T) {
	body := "<p>" + strings.Repeat("rewritten ", 20) + "</p>"
	backend := &scriptedBackend{responses: []string{body, "sorry, no json today"}}

	article, err := testRewriter(backend).Rewrite(context.Background(), testRaw())
	require.NoError(t, err)

	// Title falls back to the raw article, slug to the slugified title.
	require.Equal(t, "Brewing Coffee", article.Title)
	require.Equal(t, "brewing-coffee", article.Slug)
	require.Equal(t, body, article.ContentHTML)
}

func TestRewriteRejectsUndersizedBody(t *testing.T) {
	backend := &scriptedBackend{responses: []string{
		"<p>tiny</p>",
		`{"title": "Better Coffee", "slug": "better-coffee"}`,
	}}

	_, err := testRewriter(backend).Rewrite(context.Background(), testRaw())
	require.Error(t, err)
	require.Contains(t, err.Error(), "too short")
}

func TestRewriteBackendErrorAborts(t *testing.T) {
	backend := &scriptedBackend{err: fmt.Errorf("connection refused")}

	_, err := testRewriter(backend).Rewrite(context.Background(), testRaw())
	require.Error(t, err)
}

func TestNewUnknownProvider(t *testing.T) {
	cfg := &config.Config{}
	_, err := New("nonsense", "", cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}

func TestNewClaudeRequiresAPIKey(t *testing.T) {
	cfg := &config.Config{}
	_, err := New(ProviderClaude, "", cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}

func TestRenderTemplate(t *testing.T) {
	out := renderTemplate("Hello {name}, {name}!", map[string]string{"name": "world"})
	require.Equal(t, "Hello world, world!", out)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 10))

	// "é" is two bytes; a cut inside it must back up to the previous rune.
	s := strings.Repeat("é", 10)
	cut := truncate(s, 5)
	require.Equal(t, "éé", cut)
	require.True(t, utf8.ValidString(cut))

	require.Equal(t, "ab", truncate("abcdef", 2))
}
