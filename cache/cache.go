package cache

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Cache keeps raw upstream feed bodies keyed by feed URL
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// CacheStats contains cache statistics
type CacheStats struct {
	Entries     int
	OldestEntry time.Time
}

// NewCache initializes cache database at the given path
func NewCache(dbPath string) (*Cache, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// Requests are served concurrently, sqlite takes one writer at a time
	db.SetMaxOpenConns(1)

	// Execute schema
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Get retrieves a cached body fetched less than maxAge ago.
// Returns: (body, found, error)
func (c *Cache) Get(url string, maxAge time.Duration) (string, bool, error) {
	var (
		body      string
		fetchedAt int64
	)
	now := c.now()

	err := c.db.QueryRow(
		"SELECT body, fetched_at FROM feed_cache WHERE url = ?",
		url,
	).Scan(&body, &fetchedAt)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		slog.Warn("feed cache read error", "error", err, "url", truncate(url, 50))
		return "", false, nil // Treat errors as cache miss
	}

	if now.Sub(time.Unix(fetchedAt, 0)) >= maxAge {
		return "", false, nil
	}

	// Update accessed_at
	_, _ = c.db.Exec(
		"UPDATE feed_cache SET accessed_at = ? WHERE url = ?",
		now.Unix(), url,
	)

	return body, true, nil
}

// Set stores a freshly fetched body
func (c *Cache) Set(url, body string) error {
	now := c.now().Unix()

	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO feed_cache
		(url, body, fetched_at, accessed_at)
		VALUES (?, ?, ?, ?)
	`, url, body, now, now)

	if err != nil {
		slog.Warn("feed cache write error", "error", err, "url", truncate(url, 50))
		return err
	}

	return nil
}

// Clear removes all cache entries
func (c *Cache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM feed_cache"); err != nil {
		return fmt.Errorf("failed to clear feed cache: %w", err)
	}
	return nil
}

// Stats returns cache statistics
func (c *Cache) Stats() (CacheStats, error) {
	var stats CacheStats

	err := c.db.QueryRow("SELECT COUNT(*) FROM feed_cache").Scan(&stats.Entries)
	if err != nil {
		return stats, err
	}

	var oldestUnix sql.NullInt64
	err = c.db.QueryRow("SELECT MIN(fetched_at) FROM feed_cache").Scan(&oldestUnix)
	if err != nil && err != sql.ErrNoRows {
		return stats, err
	}
	if oldestUnix.Valid && oldestUnix.Int64 > 0 {
		stats.OldestEntry = time.Unix(oldestUnix.Int64, 0)
	}

	return stats, nil
}

// Close closes the cache database
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
