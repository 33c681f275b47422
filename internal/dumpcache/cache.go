// Package dumpcache persists a built dump index to SQLite so reopening a
// large snapshot skips the linear index pass.
package dumpcache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/symkeep/symkeep/internal/dump"
)

// Cache handles persistence of a dump index to SQLite.
type Cache struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the index cache for a project directory.
// The database lives at .symkeep/index.db under the given directory.
func Open(projectDir string) (*Cache, error) {
	cacheDir := filepath.Join(projectDir, ".symkeep")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("creating .symkeep directory: %w", err)
	}

	dbPath := filepath.Join(cacheDir, "index.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB cache
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// DBPath returns the path to the database file.
func (c *Cache) DBPath() string {
	return c.dbPath
}

// Clear removes all cached data (for re-indexing).
func (c *Cache) Clear() error {
	for _, table := range []string{"types", "metadata"} {
		if _, err := c.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing table %s: %w", table, err)
		}
	}
	return nil
}

// SaveIndex replaces the cached types with the contents of ix, in one
// transaction, and records the snapshot path and build time.
func (c *Cache) SaveIndex(ix *dump.Index) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM types"); err != nil {
		return fmt.Errorf("clearing types: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO types (name, namespace, module, kind, base_type, line, sealed, abstract, static, friendly)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range ix.Types {
		t := &ix.Types[i]
		_, err := stmt.Exec(t.Name, t.Namespace, t.Module, t.Kind, t.BaseType, t.Line,
			boolInt(t.Sealed), boolInt(t.Abstract), boolInt(t.Static), t.FriendlyName)
		if err != nil {
			return fmt.Errorf("inserting type %s: %w", t.Name, err)
		}
	}

	meta := map[string]string{
		"snapshot_path": ix.Path,
		"indexed_at":    time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`
			INSERT INTO metadata (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, v); err != nil {
			return fmt.Errorf("writing metadata: %w", err)
		}
	}

	return tx.Commit()
}

// LoadIndex reconstructs a dump.Index from the cache. It returns false when
// the cache is empty or was built from a snapshot that no longer exists.
func (c *Cache) LoadIndex() (*dump.Index, bool, error) {
	path, err := c.GetMetadata("snapshot_path")
	if err != nil || path == "" {
		return nil, false, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, false, nil
	}

	rows, err := c.db.Query(`
		SELECT name, namespace, module, kind, base_type, line, sealed, abstract, static, friendly
		FROM types ORDER BY line
	`)
	if err != nil {
		return nil, false, fmt.Errorf("querying types: %w", err)
	}
	defer rows.Close()

	ix := &dump.Index{Path: path}
	for rows.Next() {
		var t dump.TypeIndex
		var sealed, abstract, static int
		if err := rows.Scan(&t.Name, &t.Namespace, &t.Module, &t.Kind, &t.BaseType,
			&t.Line, &sealed, &abstract, &static, &t.FriendlyName); err != nil {
			return nil, false, fmt.Errorf("scanning type: %w", err)
		}
		t.Sealed = sealed != 0
		t.Abstract = abstract != 0
		t.Static = static != 0
		ix.Types = append(ix.Types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(ix.Types) == 0 {
		return nil, false, nil
	}
	return ix, true, nil
}

// TypesMatching returns cached types whose name or friendly name contains
// the pattern (case-insensitive). An empty pattern returns everything.
func (c *Cache) TypesMatching(pattern string) ([]dump.TypeIndex, error) {
	query := `
		SELECT name, namespace, module, kind, base_type, line, sealed, abstract, static, friendly
		FROM types
	`
	args := []any{}
	if pattern != "" {
		query += ` WHERE name LIKE ? OR friendly LIKE ?`
		like := "%" + pattern + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY module, namespace, name`

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dump.TypeIndex
	for rows.Next() {
		var t dump.TypeIndex
		var sealed, abstract, static int
		if err := rows.Scan(&t.Name, &t.Namespace, &t.Module, &t.Kind, &t.BaseType,
			&t.Line, &sealed, &abstract, &static, &t.FriendlyName); err != nil {
			return nil, err
		}
		t.Sealed = sealed != 0
		t.Abstract = abstract != 0
		t.Static = static != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetMetadata stores a key-value pair in the metadata table.
func (c *Cache) SetMetadata(key, value string) error {
	_, err := c.db.Exec(`
		INSERT INTO metadata (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetMetadata retrieves a value from the metadata table.
func (c *Cache) GetMetadata(key string) (string, error) {
	var value string
	err := c.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Stats holds statistics about the cached index.
type Stats struct {
	TypeCount int       `json:"type_count"`
	Modules   int       `json:"modules"`
	IndexedAt time.Time `json:"indexed_at"`
	Snapshot  string    `json:"snapshot"`
}

// GetStats returns statistics about the cached index.
func (c *Cache) GetStats() (*Stats, error) {
	stats := &Stats{}
	if err := c.db.QueryRow("SELECT COUNT(*) FROM types").Scan(&stats.TypeCount); err != nil {
		return nil, fmt.Errorf("counting types: %w", err)
	}
	if err := c.db.QueryRow("SELECT COUNT(DISTINCT module) FROM types").Scan(&stats.Modules); err != nil {
		return nil, fmt.Errorf("counting modules: %w", err)
	}
	if ts, err := c.GetMetadata("indexed_at"); err == nil && ts != "" {
		stats.IndexedAt, _ = time.Parse(time.RFC3339, ts)
	}
	stats.Snapshot, _ = c.GetMetadata("snapshot_path")
	return stats, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
