package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/esquery/internal/backend"
	"github.com/roach88/esquery/internal/metrics"
)

const backendName = "local"

// CreateIndex creates index if it does not exist.
func (s *Store) CreateIndex(ctx context.Context, index string) error {
	if index == "" {
		return fmt.Errorf("create index: empty index name")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO indices (name, created_at)
		VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, index, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	return nil
}

// Index stores doc under id in index, creating the index on first use.
// An empty id is replaced by a generated UUID. Re-indexing an existing id
// replaces its source but keeps its position in insertion order.
func (s *Store) Index(ctx context.Context, index, id string, doc json.RawMessage) (err error) {
	defer func(start time.Time) { metrics.ObserveBackend(backendName, "index", start, err) }(time.Now())

	source, err := compactObject(doc)
	if err != nil {
		return fmt.Errorf("index %s/%s: %w", index, id, err)
	}
	if id == "" {
		id = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index %s/%s: begin: %w", index, id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO indices (name, created_at)
		VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, index, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("index %s/%s: create index: %w", index, id, err)
	}

	// seq is assigned once; ON CONFLICT leaves it untouched.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (index_name, id, seq, source)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM documents WHERE index_name = ?), ?)
		ON CONFLICT(index_name, id) DO UPDATE SET source = excluded.source
	`, index, id, index, source); err != nil {
		return fmt.Errorf("index %s/%s: %w", index, id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("index %s/%s: commit: %w", index, id, err)
	}
	return nil
}

// Refresh is a no-op beyond checking the index exists: writes are visible
// as soon as they commit.
func (s *Store) Refresh(ctx context.Context, index string) error {
	ok, err := s.IndexExists(ctx, index)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("refresh %s: %w", index, backend.ErrIndexNotFound)
	}
	return nil
}

// DeleteIndex removes index and all its documents.
func (s *Store) DeleteIndex(ctx context.Context, index string) (err error) {
	defer func(start time.Time) { metrics.ObserveBackend(backendName, "delete_index", start, err) }(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete index %s: begin: %w", index, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE index_name = ?`, index); err != nil {
		return fmt.Errorf("delete index %s: documents: %w", index, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM indices WHERE name = ?`, index)
	if err != nil {
		return fmt.Errorf("delete index %s: %w", index, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete index %s: %w", index, err)
	}
	if n == 0 {
		return fmt.Errorf("delete index %s: %w", index, backend.ErrIndexNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete index %s: commit: %w", index, err)
	}
	s.logger.Debug("index deleted", "index", index)
	return nil
}

// IndexExists reports whether index exists.
func (s *Store) IndexExists(ctx context.Context, index string) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM indices WHERE name = ?`, index).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("index exists %s: %w", index, err)
	}
	return true, nil
}

// compactObject validates that doc is a JSON object and returns its
// compact form.
func compactObject(doc json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", fmt.Errorf("document must be a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return "", fmt.Errorf("invalid document: %w", err)
	}
	return buf.String(), nil
}
