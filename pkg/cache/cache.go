// Package cache persists phase-1 expansion results so later runs can
// reprocess pages without re-scanning the full dump.
package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	title    TEXT NOT NULL UNIQUE,
	model    TEXT NOT NULL,
	expanded TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Cache is a SQLite-backed store of expanded page text keyed by title.
type Cache struct {
	*sql.DB
	path string
}

// Open opens or creates the cache database at <prefix>.db and ensures the
// schema exists.
func Open(prefix string) (*Cache, error) {
	return openPath(prefix + ".db")
}

func openPath(path string) (*Cache, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	c := &Cache{DB: sqlDB, path: path}
	if _, err := c.Exec(schema); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return c, nil
}

// Path returns the database file path.
func (c *Cache) Path() string { return c.path }

// Put stores one page's expanded text, replacing any previous revision of
// the same title.
func (c *Cache) Put(title, model, expanded string) error {
	_, err := c.Exec(`
		INSERT INTO pages (title, model, expanded) VALUES (?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET model = excluded.model, expanded = excluded.expanded
	`, title, model, expanded)
	if err != nil {
		return fmt.Errorf("failed to cache page %q: %w", title, err)
	}
	return nil
}

// Get returns the cached expansion for title. ok is false on a miss.
func (c *Cache) Get(title string) (model, expanded string, ok bool, err error) {
	err = c.QueryRow(`SELECT model, expanded FROM pages WHERE title = ?`, title).
		Scan(&model, &expanded)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("failed to read cached page %q: %w", title, err)
	}
	return model, expanded, true, nil
}

// Each calls fn for every cached page in insertion order. Iteration stops at
// the first error fn returns.
func (c *Cache) Each(fn func(title, model, expanded string) error) error {
	rows, err := c.Query(`SELECT title, model, expanded FROM pages ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("failed to scan cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var title, model, expanded string
		if err := rows.Scan(&title, &model, &expanded); err != nil {
			return fmt.Errorf("failed to scan cache row: %w", err)
		}
		if err := fn(title, model, expanded); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of cached pages.
func (c *Cache) Count() (int, error) {
	var n int
	if err := c.QueryRow(`SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cached pages: %w", err)
	}
	return n, nil
}

// SetMeta records a run-metadata value, e.g. the source dump path.
func (c *Cache) SetMeta(key, value string) error {
	_, err := c.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set cache meta %q: %w", key, err)
	}
	return nil
}

// GetMeta returns a run-metadata value, or "" if unset.
func (c *Cache) GetMeta(key string) (string, error) {
	var v string
	err := c.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read cache meta %q: %w", key, err)
	}
	return v, nil
}
