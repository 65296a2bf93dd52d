package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	envFileName         = ".env"
	logLevelEnv         = "PIPELINE_LOG_LEVEL"
	supabaseURLEnv      = "SUPABASE_URL"
	supabaseKeyEnv      = "SUPABASE_SERVICE_ROLE_KEY"
	revalidationEnv     = "REVALIDATION_SECRET"
	siteURLEnv          = "SITE_URL"
	ollamaBaseURLEnv    = "OLLAMA_BASE_URL"
	anthropicAPIKeyEnv  = "ANTHROPIC_API_KEY"
	defaultAuthorIDEnv  = "PIPELINE_DEFAULT_AUTHOR_ID"
	defaultStatusEnv    = "PIPELINE_DEFAULT_STATUS"
	defaultSiteURL      = "http://localhost:4567"
	defaultOllamaURL    = "http://localhost:11434"
	defaultPublishState = "draft"
)

// Config holds everything the pipeline needs, loaded once at startup and
// passed by reference. There is no hidden global state behind it.
type Config struct {
	BaseDir string

	Logging      LoggingConfig
	Supabase     SupabaseConfig
	Revalidation RevalidationConfig
	Ollama       OllamaConfig
	Anthropic    AnthropicConfig
	Pipeline     PipelineConfig

	Sources          []SourceConfig
	CategoryMappings map[string]string
	Prompts          PromptsConfig
}

// LoggingConfig controls the slog handler level.
type LoggingConfig struct {
	Level string
}

// SupabaseConfig carries the hosted content database credentials. The service
// role key bypasses row-level security.
type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
}

// RevalidationConfig describes the cache revalidation endpoint.
type RevalidationConfig struct {
	Secret  string
	SiteURL string
}

// OllamaConfig points at a local model server.
type OllamaConfig struct {
	BaseURL string
}

// AnthropicConfig authenticates the hosted chat-completion API.
type AnthropicConfig struct {
	APIKey string
}

// PipelineConfig holds publish-stage defaults.
type PipelineConfig struct {
	DefaultAuthorID string
	DefaultStatus   string
}

// SourceConfig is one named crawl target with its selector set.
type SourceConfig struct {
	Name           string         `yaml:"name"`
	Strategy       string         `yaml:"strategy"`
	StartURLs      []string       `yaml:"start_urls"`
	AllowedDomains []string       `yaml:"allowed_domains"`
	Selectors      SelectorConfig `yaml:"selectors"`
	Pagination     string         `yaml:"pagination"`
	MaxPages       int            `yaml:"max_pages"`
	RateLimit      float64        `yaml:"rate_limit"`
	CategoryHint   string         `yaml:"category_hint"`
}

// SelectorConfig names the CSS selectors used to extract article fields.
type SelectorConfig struct {
	ArticleLinks  string `yaml:"article_links"`
	Title         string `yaml:"title"`
	Content       string `yaml:"content"`
	Tags          string `yaml:"tags"`
	Author        string `yaml:"author"`
	PublishedDate string `yaml:"published_date"`
	FeaturedImage string `yaml:"featured_image"`
}

// PromptsConfig holds the three rewrite templates. RewritePrompt substitutes
// {title} and {content}; MetadataPrompt substitutes {content}.
type PromptsConfig struct {
	SystemPrompt   string `yaml:"system_prompt"`
	RewritePrompt  string `yaml:"rewrite_prompt"`
	MetadataPrompt string `yaml:"metadata_prompt"`
}

// Load builds the configuration for a pipeline rooted at baseDir: optional
// .env file, environment variables, and the YAML documents under config/.
func Load(baseDir string) (*Config, error) {
	if baseDir == "" {
		baseDir = "."
	}

	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load(filepath.Join(baseDir, envFileName))

	cfg := &Config{
		BaseDir: baseDir,
		Logging: LoggingConfig{Level: envOr(logLevelEnv, "info")},
		Supabase: SupabaseConfig{
			URL:            os.Getenv(supabaseURLEnv),
			ServiceRoleKey: os.Getenv(supabaseKeyEnv),
		},
		Revalidation: RevalidationConfig{
			Secret:  os.Getenv(revalidationEnv),
			SiteURL: envOr(siteURLEnv, defaultSiteURL),
		},
		Ollama:    OllamaConfig{BaseURL: envOr(ollamaBaseURLEnv, defaultOllamaURL)},
		Anthropic: AnthropicConfig{APIKey: os.Getenv(anthropicAPIKeyEnv)},
		Pipeline: PipelineConfig{
			DefaultAuthorID: os.Getenv(defaultAuthorIDEnv),
			DefaultStatus:   envOr(defaultStatusEnv, defaultPublishState),
		},
		Prompts: defaultPrompts(),
	}

	if err := cfg.loadSources(); err != nil {
		return nil, err
	}
	if err := cfg.loadCategoryMappings(); err != nil {
		return nil, err
	}
	if err := cfg.loadPrompts(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DataDir is the staging area root.
func (c *Config) DataDir() string { return filepath.Join(c.BaseDir, "data") }

// RawDir holds one JSON file per scraped article.
func (c *Config) RawDir() string { return filepath.Join(c.DataDir(), "raw") }

// RewrittenDir holds rewritten articles; consumed files move to done/.
func (c *Config) RewrittenDir() string { return filepath.Join(c.DataDir(), "rewritten") }

// DedupPath is the seen-URL table location.
func (c *Config) DedupPath() string { return filepath.Join(c.DataDir(), "dedup.sqlite") }

func (c *Config) configDir() string { return filepath.Join(c.BaseDir, "config") }

// EnsureDirs creates the staging directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.RawDir(), filepath.Join(c.RewrittenDir(), "done")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// RequireSupabase verifies the content database credentials are present.
func (c *Config) RequireSupabase() error {
	if c.Supabase.URL == "" || c.Supabase.ServiceRoleKey == "" {
		return fmt.Errorf("%s and %s are required", supabaseURLEnv, supabaseKeyEnv)
	}
	return nil
}

// RequireRevalidation verifies the shared revalidation secret is present.
func (c *Config) RequireRevalidation() error {
	if c.Revalidation.Secret == "" {
		return fmt.Errorf("%s is required for revalidation", revalidationEnv)
	}
	return nil
}

// RequireAnthropic verifies the hosted API key is present.
func (c *Config) RequireAnthropic() error {
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("%s is required for the claude provider", anthropicAPIKeyEnv)
	}
	return nil
}

// SourceByName returns the named source config.
func (c *Config) SourceByName(name string) (SourceConfig, error) {
	for _, src := range c.Sources {
		if src.Name == name {
			return src, nil
		}
	}
	return SourceConfig{}, fmt.Errorf("source %q not found in sources.yaml", name)
}

func (c *Config) loadSources() error {
	path := filepath.Join(c.configDir(), "sources.yaml")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var doc struct {
		Sources []SourceConfig `yaml:"sources"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for i := range doc.Sources {
		applySourceDefaults(&doc.Sources[i])
	}
	c.Sources = doc.Sources
	return nil
}

func (c *Config) loadCategoryMappings() error {
	path := filepath.Join(c.configDir(), "categories.yaml")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		c.CategoryMappings = map[string]string{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var doc struct {
		Mappings map[string]string `yaml:"mappings"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Mappings == nil {
		doc.Mappings = map[string]string{}
	}
	c.CategoryMappings = doc.Mappings
	return nil
}

func (c *Config) loadPrompts() error {
	path := filepath.Join(c.configDir(), "prompts.yaml")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var doc PromptsConfig
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.SystemPrompt != "" {
		c.Prompts.SystemPrompt = doc.SystemPrompt
	}
	if doc.RewritePrompt != "" {
		c.Prompts.RewritePrompt = doc.RewritePrompt
	}
	if doc.MetadataPrompt != "" {
		c.Prompts.MetadataPrompt = doc.MetadataPrompt
	}
	return nil
}

func applySourceDefaults(src *SourceConfig) {
	if src.Strategy == "" {
		src.Strategy = "listing"
	}
	if src.Selectors.ArticleLinks == "" {
		src.Selectors.ArticleLinks = "article a[href]"
	}
	if src.Selectors.Title == "" {
		src.Selectors.Title = "h1"
	}
	if src.Selectors.Content == "" {
		src.Selectors.Content = "article"
	}
	if src.Selectors.Author == "" {
		src.Selectors.Author = ".author"
	}
	if src.Selectors.PublishedDate == "" {
		src.Selectors.PublishedDate = "time"
	}
	if src.Selectors.FeaturedImage == "" {
		src.Selectors.FeaturedImage = "img"
	}
	if src.MaxPages <= 0 {
		src.MaxPages = 5
	}
	if src.RateLimit <= 0 {
		src.RateLimit = 2.0
	}
}

func defaultPrompts() PromptsConfig {
	return PromptsConfig{
		SystemPrompt: "You are an experienced lifestyle editor. You rewrite source articles " +
			"into original, friendly, well-structured blog posts in clean HTML. " +
			"Never copy sentences verbatim from the source.",
		RewritePrompt: "Rewrite the following article as an original blog post.\n" +
			"Respond with the article body only, as clean HTML using <h2>, <h3>, <p>, <ul> and <ol> tags.\n" +
			"Do not include a top-level title heading.\n\n" +
			"Title: {title}\n\nContent:\n{content}",
		MetadataPrompt: "Generate SEO metadata for the following article. Respond with a single JSON object " +
			"with these keys: title, slug, excerpt, meta_title, meta_description, " +
			"meta_keywords (array of strings), tags (array of strings). No other text.\n\n" +
			"Article:\n{content}",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
