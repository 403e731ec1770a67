// Package branchcache stores a compressed copy of the last-saved JSON
// index keyed per git branch, so switching branches can restore a
// warm snapshot instead of falling back to a full progressive index
// (the "(added) Branch-aware snapshot cache"). Each branch gets its
// own SQLite file holding a single blob column — the simplest
// faithful adaptation of the teacher's branch-keyed cache file plumbing
// into a key->blob store. This is pure optimization: every correctness
// invariant of the index holds whether or not a snapshot exists.
package branchcache

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// blobStore wraps a single SQLite file holding one gzip-compressed
// blob per key. A branch's snapshot is the sole row; the schema
// stays a single table because nothing here needs relational queries.
type blobStore struct {
	path string
}

func openBlobStore(path string) (*blobStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("branchcache: create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("branchcache: open %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshot (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("branchcache: create schema: %w", err)
	}
	return &blobStore{path: path}, nil
}

// put compresses value and stores it under key, overwriting any
// existing row, stamped with the current time for staleness checks.
func (b *blobStore) put(key string, value []byte) error {
	db, err := sql.Open("sqlite3", b.path)
	if err != nil {
		return fmt.Errorf("branchcache: open %s: %w", b.path, err)
	}
	defer db.Close()

	compressed, err := gzipCompress(value)
	if err != nil {
		return fmt.Errorf("branchcache: compress snapshot: %w", err)
	}

	_, err = db.Exec(`INSERT INTO snapshot (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, compressed, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("branchcache: write snapshot: %w", err)
	}
	return nil
}

// get returns the decompressed value stored under key, its storage
// time, and whether a row was found.
func (b *blobStore) get(key string) ([]byte, time.Time, bool, error) {
	if _, err := os.Stat(b.path); err != nil {
		return nil, time.Time{}, false, nil
	}

	db, err := sql.Open("sqlite3", b.path)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("branchcache: open %s: %w", b.path, err)
	}
	defer db.Close()

	var compressed []byte
	var updatedAt int64
	row := db.QueryRow(`SELECT value, updated_at FROM snapshot WHERE key = ?`, key)
	switch err := row.Scan(&compressed, &updatedAt); {
	case err == sql.ErrNoRows:
		return nil, time.Time{}, false, nil
	case err != nil:
		return nil, time.Time{}, false, fmt.Errorf("branchcache: read snapshot: %w", err)
	}

	value, err := gzipDecompress(compressed)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("branchcache: decompress snapshot: %w", err)
	}
	return value, time.Unix(updatedAt, 0), true, nil
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
