package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"BlogPipeline/internal/app"
	"BlogPipeline/internal/infrastructure/llm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var baseDir string

	root := &cobra.Command{
		Use:           "blogpipeline",
		Short:         "Scrape, rewrite and publish blog content",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&baseDir, "base-dir", ".", "pipeline root holding config/ and data/")

	root.AddCommand(
		newScrapeCmd(&baseDir),
		newFetchCmd(&baseDir),
		newRewriteCmd(&baseDir),
		newPublishCmd(&baseDir),
		newRunCmd(&baseDir),
		newStatusCmd(&baseDir),
	)
	return root
}

func newScrapeCmd(baseDir *string) *cobra.Command {
	var (
		source string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape configured sources into the raw staging area",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(*baseDir)
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.Pipeline.Scrape(cmd.Context(), a.Registry, source, limit)
			if err != nil {
				return err
			}
			a.Logger.Info("scrape finished", "new_articles", summary.Processed, "failed_sources", summary.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "scrape only this source")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "max new articles per source (0 = unlimited)")
	return cmd
}

func newFetchCmd(baseDir *string) *cobra.Command {
	var (
		file     string
		category string
	)
	cmd := &cobra.Command{
		Use:   "fetch [url...]",
		Short: "Scrape explicit URLs with generic selectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if file != "" {
				fromFile, err := readURLFile(file)
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs given: pass them as arguments or via --file")
			}

			a, err := app.New(*baseDir)
			if err != nil {
				return err
			}
			defer a.Close()

			saved, err := a.Pipeline.Fetch(cmd.Context(), a.Direct, urls, category)
			if err != nil {
				return err
			}
			a.Logger.Info("fetch finished", "new_articles", saved)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "file with one URL per line")
	cmd.Flags().StringVar(&category, "category", "", "category hint for all fetched articles")
	return cmd
}

func newRewriteCmd(baseDir *string) *cobra.Command {
	var (
		provider string
		model    string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite pending raw articles with an LLM backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(*baseDir)
			if err != nil {
				return err
			}
			defer a.Close()

			rewriter, err := a.NewRewriter(provider, model)
			if err != nil {
				return err
			}
			summary, err := a.Pipeline.Rewrite(cmd.Context(), rewriter, limit)
			if err != nil {
				return err
			}
			a.Logger.Info("rewrite finished", "rewritten", summary.Processed, "failed", summary.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", llm.ProviderOllama, "rewrite backend: ollama, claude or cli-agent")
	cmd.Flags().StringVar(&model, "model", "", "model name (or CLI command for cli-agent)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max articles to rewrite (0 = all pending)")
	return cmd
}

func newPublishCmd(baseDir *string) *cobra.Command {
	var (
		authorID string
		status   string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish pending rewritten articles to the content store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(*baseDir)
			if err != nil {
				return err
			}
			defer a.Close()

			return runPublish(cmd, a, authorID, status, limit)
		},
	}
	cmd.Flags().StringVar(&authorID, "author-id", "", "author id for new posts (defaults to PIPELINE_DEFAULT_AUTHOR_ID)")
	cmd.Flags().StringVar(&status, "status", "", "post status: draft or published (defaults to PIPELINE_DEFAULT_STATUS)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max articles to publish (0 = all pending)")
	return cmd
}

func newRunCmd(baseDir *string) *cobra.Command {
	var (
		source   string
		limit    int
		provider string
		model    string
		authorID string
		status   string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run scrape, rewrite and publish in sequence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(*baseDir)
			if err != nil {
				return err
			}
			defer a.Close()

			// Fail fast on backend config before any network I/O.
			rewriter, err := a.NewRewriter(provider, model)
			if err != nil {
				return err
			}
			if _, err := a.NewPublisher(); err != nil {
				return err
			}

			scraped, err := a.Pipeline.Scrape(cmd.Context(), a.Registry, source, limit)
			if err != nil {
				return err
			}
			a.Logger.Info("scrape finished", "new_articles", scraped.Processed, "failed_sources", scraped.Failed)

			rewritten, err := a.Pipeline.Rewrite(cmd.Context(), rewriter, 0)
			if err != nil {
				return err
			}
			a.Logger.Info("rewrite finished", "rewritten", rewritten.Processed, "failed", rewritten.Failed)

			return runPublish(cmd, a, authorID, status, 0)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "scrape only this source")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "max new articles per source (0 = unlimited)")
	cmd.Flags().StringVar(&provider, "provider", llm.ProviderOllama, "rewrite backend: ollama, claude or cli-agent")
	cmd.Flags().StringVar(&model, "model", "", "model name (or CLI command for cli-agent)")
	cmd.Flags().StringVar(&authorID, "author-id", "", "author id for new posts")
	cmd.Flags().StringVar(&status, "status", "", "post status: draft or published")
	return cmd
}

func newStatusCmd(baseDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show staging and dedup counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(*baseDir)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Pipeline.Status(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("raw articles:        %d\n", report.RawFiles)
			fmt.Printf("awaiting rewrite:    %d\n", report.AwaitingRewrite)
			fmt.Printf("awaiting publish:    %d\n", report.AwaitingPublish)
			fmt.Printf("seen urls:           %d\n", report.Dedup.Total)
			fmt.Printf("  published:         %d\n", report.Dedup.Published)
			fmt.Printf("  pending:           %d\n", report.Dedup.Pending)
			return nil
		},
	}
}

// runPublish shares the publish tail between the publish and run commands.
func runPublish(cmd *cobra.Command, a *app.App, authorID, status string, limit int) error {
	if authorID == "" {
		authorID = a.Cfg.Pipeline.DefaultAuthorID
	}
	if status == "" {
		status = a.Cfg.Pipeline.DefaultStatus
	}
	if status != "draft" && status != "published" {
		return fmt.Errorf("invalid status %q: want draft or published", status)
	}

	pub, err := a.NewPublisher()
	if err != nil {
		return err
	}

	summary, slugs, err := a.Pipeline.Publish(cmd.Context(), pub, authorID, status, limit)
	if err != nil {
		return err
	}
	a.Logger.Info("publish finished", "published", summary.Processed, "failed", summary.Failed)

	if status == "published" && len(slugs) > 0 {
		rev, err := a.NewRevalidator()
		if err != nil {
			a.Logger.Warn("revalidation skipped", "error", err)
			return nil
		}
		a.Pipeline.RevalidateSlugs(cmd.Context(), rev, slugs)
	}
	return nil
}

// readURLFile reads one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}

	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}
