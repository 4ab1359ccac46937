// Package storage provides SQLite-based persistence for the client's small
// key/value needs: cached skins and the client fingerprint.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Entry describes one stored value without its payload.
type Entry struct {
	Bucket    string
	Key       string
	Size      int
	UpdatedAt time.Time
}

// BucketStats summarizes one bucket.
type BucketStats struct {
	Bucket    string
	Count     int
	Bytes     int64
	UpdatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	dbPath, err := ExpandHome(dbPath)
	if err != nil {
		return nil, err
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("storage: cannot expand home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			bucket TEXT NOT NULL,
			key TEXT NOT NULL,
			value BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (bucket, key)
		);
		CREATE INDEX IF NOT EXISTS idx_kv_bucket ON kv(bucket);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the value stored under bucket/key.
func (s *Store) Get(bucket, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(
		"SELECT value FROM kv WHERE bucket = ? AND key = ?",
		bucket, key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: cannot read %s/%s: %w", bucket, key, err)
	}
	return value, true, nil
}

// Put stores value under bucket/key, replacing any previous value.
func (s *Store) Put(bucket, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.Exec(
		`INSERT INTO kv (bucket, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(bucket, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		bucket, key, value,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot write %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Delete removes bucket/key. Missing keys are not an error.
func (s *Store) Delete(bucket, key string) error {
	_, err := s.db.Exec("DELETE FROM kv WHERE bucket = ? AND key = ?", bucket, key)
	if err != nil {
		return fmt.Errorf("storage: cannot delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Keys returns every key of a bucket in ascending order.
func (s *Store) Keys(bucket string) ([]string, error) {
	entries, err := s.Entries(bucket)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys, nil
}

// Entries lists a bucket ordered by key.
func (s *Store) Entries(bucket string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT bucket, key, length(value), updated_at
		 FROM kv
		 WHERE bucket = ?
		 ORDER BY key`,
		bucket,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query %s: %w", bucket, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updatedAt any
		if err := rows.Scan(&e.Bucket, &e.Key, &e.Size, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.UpdatedAt = parseTime(updatedAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// Clear deletes every key of a bucket and returns how many were removed.
func (s *Store) Clear(bucket string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM kv WHERE bucket = ?", bucket)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot clear %s: %w", bucket, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot count cleared rows: %w", err)
	}
	return n, nil
}

// Stats retrieves per-bucket counts and sizes.
func (s *Store) Stats() (map[string]*BucketStats, error) {
	rows, err := s.db.Query(
		`SELECT bucket, COUNT(*), COALESCE(SUM(length(value)), 0), MAX(updated_at)
		 FROM kv
		 GROUP BY bucket`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get bucket stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*BucketStats)
	for rows.Next() {
		var b BucketStats
		var updatedAt any
		if err := rows.Scan(&b.Bucket, &b.Count, &b.Bytes, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		b.UpdatedAt = parseTime(updatedAt)
		stats[b.Bucket] = &b
	}

	return stats, rows.Err()
}

// parseTime handles both time.Time and string datetimes.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
