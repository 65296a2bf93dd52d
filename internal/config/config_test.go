package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, baseDir, name, content string) {
	t.Helper()
	dir := filepath.Join(baseDir, "config")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	// Neutralize ambient environment so the built-in defaults apply.
	for _, key := range []string{logLevelEnv, siteURLEnv, ollamaBaseURLEnv, defaultStatusEnv} {
		t.Setenv(key, "")
	}

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, defaultSiteURL, cfg.Revalidation.SiteURL)
	require.Equal(t, defaultOllamaURL, cfg.Ollama.BaseURL)
	require.Equal(t, "draft", cfg.Pipeline.DefaultStatus)
	require.Empty(t, cfg.Sources)
	require.Empty(t, cfg.CategoryMappings)

	// Built-in prompts are present without a prompts.yaml.
	require.Contains(t, cfg.Prompts.RewritePrompt, "{title}")
	require.Contains(t, cfg.Prompts.RewritePrompt, "{content}")
	require.Contains(t, cfg.Prompts.MetadataPrompt, "{content}")
}

func TestLoadSourcesWithDefaults(t *testing.T) {
	baseDir := t.TempDir()
	writeConfigFile(t, baseDir, "sources.yaml", `
sources:
  - name: example-blog
    start_urls:
      - https://example.com/blog
    allowed_domains:
      - example.com
    selectors:
      article_links: ".post-list a"
    category_hint: lifestyle
`)

	cfg, err := Load(baseDir)
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 1)

	src := cfg.Sources[0]
	require.Equal(t, "example-blog", src.Name)
	require.Equal(t, "listing", src.Strategy)
	require.Equal(t, ".post-list a", src.Selectors.ArticleLinks)
	// Unset selectors and limits pick up defaults.
	require.Equal(t, "h1", src.Selectors.Title)
	require.Equal(t, "article", src.Selectors.Content)
	require.Equal(t, 5, src.MaxPages)
	require.Equal(t, 2.0, src.RateLimit)

	_, err = cfg.SourceByName("example-blog")
	require.NoError(t, err)
	_, err = cfg.SourceByName("missing")
	require.Error(t, err)
}

func TestLoadCategoryMappingsAndPrompts(t *testing.T) {
	baseDir := t.TempDir()
	writeConfigFile(t, baseDir, "categories.yaml", `
mappings:
  food-drink: Food & Drink
`)
	writeConfigFile(t, baseDir, "prompts.yaml", `
rewrite_prompt: "Custom rewrite of {title}: {content}"
`)

	cfg, err := Load(baseDir)
	require.NoError(t, err)
	require.Equal(t, "Food & Drink", cfg.CategoryMappings["food-drink"])
	require.Contains(t, cfg.Prompts.RewritePrompt, "Custom rewrite")
	// Untouched prompts keep their built-in values.
	require.NotEmpty(t, cfg.Prompts.SystemPrompt)
	require.NotEmpty(t, cfg.Prompts.MetadataPrompt)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PIPELINE_LOG_LEVEL", "debug")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "key")
	t.Setenv("PIPELINE_DEFAULT_STATUS", "published")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "published", cfg.Pipeline.DefaultStatus)
	require.NoError(t, cfg.RequireSupabase())
}

func TestRequireHelpers(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.RequireSupabase())
	require.Error(t, cfg.RequireRevalidation())
	require.Error(t, cfg.RequireAnthropic())

	cfg.Supabase = SupabaseConfig{URL: "u", ServiceRoleKey: "k"}
	cfg.Revalidation.Secret = "s"
	cfg.Anthropic.APIKey = "a"
	require.NoError(t, cfg.RequireSupabase())
	require.NoError(t, cfg.RequireRevalidation())
	require.NoError(t, cfg.RequireAnthropic())
}

func TestEnsureDirs(t *testing.T) {
	cfg := &Config{BaseDir: t.TempDir()}
	require.NoError(t, cfg.EnsureDirs())

	for _, dir := range []string{cfg.RawDir(), filepath.Join(cfg.RewrittenDir(), "done")} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}
