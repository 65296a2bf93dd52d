package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"BlogPipeline/internal/domain"
	"BlogPipeline/internal/ports"
)

const seenURLsSchema = `
CREATE TABLE IF NOT EXISTS seen_urls (
    url TEXT PRIMARY KEY,
    source TEXT,
    scraped_at TEXT,
    published BOOLEAN DEFAULT FALSE
)`

// DedupStore is the local seen-URL table backed by SQLite. It assumes a
// single pipeline process writing at a time; concurrent readers are fine.
type DedupStore struct {
	db *sql.DB
}

var _ ports.DedupStore = (*DedupStore)(nil)

// OpenDedupStore opens (creating if needed) the dedup table at path.
func OpenDedupStore(path string) (*DedupStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dedup dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open dedup db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(seenURLsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create seen_urls table: %w", err)
	}

	return &DedupStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *DedupStore) Close() error {
	return s.db.Close()
}

// IsSeen reports whether the URL was already scraped.
func (s *DedupStore) IsSeen(ctx context.Context, url string) (bool, error) {
	query, args, err := sq.Select("1").From("seen_urls").Where(sq.Eq{"url": url}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query seen_urls: %w", err)
	}
	return true, nil
}

// MarkSeen records a URL as scraped. Insert-if-absent: repeated calls keep
// the original scraped_at.
func (s *DedupStore) MarkSeen(ctx context.Context, url, source string) error {
	query, args, err := sq.Insert("seen_urls").
		Options("OR IGNORE").
		Columns("url", "source", "scraped_at").
		Values(url, source, time.Now().UTC().Format(time.RFC3339)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert seen url: %w", err)
	}
	return nil
}

// MarkPublished flips the published flag for a URL; unknown URLs are a no-op.
func (s *DedupStore) MarkPublished(ctx context.Context, url string) error {
	query, args, err := sq.Update("seen_urls").
		Set("published", true).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

// Stats returns total, published, and pending URL counts.
func (s *DedupStore) Stats(ctx context.Context) (domain.DedupStats, error) {
	var stats domain.DedupStats

	query, args, err := sq.Select("COUNT(*)").From("seen_urls").ToSql()
	if err != nil {
		return stats, fmt.Errorf("build count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&stats.Total); err != nil {
		return stats, fmt.Errorf("count seen urls: %w", err)
	}

	query, args, err = sq.Select("COUNT(*)").From("seen_urls").Where(sq.Eq{"published": true}).ToSql()
	if err != nil {
		return stats, fmt.Errorf("build count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&stats.Published); err != nil {
		return stats, fmt.Errorf("count published urls: %w", err)
	}

	stats.Pending = stats.Total - stats.Published
	return stats, nil
}
