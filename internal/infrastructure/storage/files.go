package storage

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"BlogPipeline/internal/domain"
)

const doneSubdir = "done"

// ArticleFilename derives the staging file name for an article: a slugified
// title capped at 50 characters plus a 12-character hash of the source URL.
// Distinct URLs never collide; re-runs of the same URL are stable.
func ArticleFilename(title, url string) string {
	sum := md5.Sum([]byte(url))
	urlHash := hex.EncodeToString(sum[:])[:12]

	slug := strings.ReplaceAll(strings.ToLower(title), " ", "-")
	if len(slug) > 50 {
		slug = slug[:50]
	}
	var b strings.Builder
	for _, r := range slug {
		if r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		b.WriteString("untitled")
	}

	return fmt.Sprintf("%s-%s.json", b.String(), urlHash)
}

// RawStore is the directory of scraped article JSON files.
type RawStore struct {
	dir string
}

// NewRawStore wires a raw article directory.
func NewRawStore(dir string) *RawStore {
	return &RawStore{dir: dir}
}

// Save writes the article and returns the file name it was stored under.
func (s *RawStore) Save(article domain.RawArticle) (string, error) {
	name := ArticleFilename(article.Title, article.SourceURL)
	if err := writeJSON(filepath.Join(s.dir, name), article); err != nil {
		return "", err
	}
	return name, nil
}

// Load reads one raw article by file name.
func (s *RawStore) Load(name string) (domain.RawArticle, error) {
	var article domain.RawArticle
	err := readJSON(filepath.Join(s.dir, name), &article)
	return article, err
}

// Names lists raw article file names, sorted.
func (s *RawStore) Names() ([]string, error) {
	return listJSON(s.dir)
}

// Count returns the number of raw article files.
func (s *RawStore) Count() (int, error) {
	names, err := s.Names()
	return len(names), err
}

// RewrittenStore is the directory of rewritten article JSON files, with a
// done/ sub-area holding files consumed by the publish stage.
type RewrittenStore struct {
	dir string
}

// NewRewrittenStore wires a rewritten article directory.
func NewRewrittenStore(dir string) *RewrittenStore {
	return &RewrittenStore{dir: dir}
}

// Save writes a rewritten article under the same name as its raw counterpart.
func (s *RewrittenStore) Save(name string, article domain.RewrittenArticle) error {
	return writeJSON(filepath.Join(s.dir, name), article)
}

// Load reads one rewritten article by file name.
func (s *RewrittenStore) Load(name string) (domain.RewrittenArticle, error) {
	var article domain.RewrittenArticle
	err := readJSON(filepath.Join(s.dir, name), &article)
	return article, err
}

// Pending lists rewritten files not yet archived, sorted. These are the
// articles awaiting publish.
func (s *RewrittenStore) Pending() ([]string, error) {
	return listJSON(s.dir)
}

// Count returns the number of pending rewritten files.
func (s *RewrittenStore) Count() (int, error) {
	names, err := s.Pending()
	return len(names), err
}

// Done lists archived (already published) file names, sorted.
func (s *RewrittenStore) Done() ([]string, error) {
	return listJSON(filepath.Join(s.dir, doneSubdir))
}

// Archive moves a published file into the done sub-area.
func (s *RewrittenStore) Archive(name string) error {
	doneDir := filepath.Join(s.dir, doneSubdir)
	if err := os.MkdirAll(doneDir, 0o755); err != nil {
		return fmt.Errorf("create done dir: %w", err)
	}
	if err := os.Rename(filepath.Join(s.dir, name), filepath.Join(doneDir, name)); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	return nil
}

// PendingRewrites returns raw files that have no same-named rewritten file,
// pending or archived. File existence is the processing-state signal; callers
// go through this instead of scanning directories themselves.
func PendingRewrites(raw *RawStore, rewritten *RewrittenStore) ([]string, error) {
	rawNames, err := raw.Names()
	if err != nil {
		return nil, err
	}
	rewrittenNames, err := rewritten.Pending()
	if err != nil {
		return nil, err
	}
	archivedNames, err := rewritten.Done()
	if err != nil {
		return nil, err
	}

	done := make(map[string]struct{}, len(rewrittenNames)+len(archivedNames))
	for _, name := range rewrittenNames {
		done[name] = struct{}{}
	}
	for _, name := range archivedNames {
		done[name] = struct{}{}
	}

	var pending []string
	for _, name := range rawNames {
		if _, ok := done[name]; !ok {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func listJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
