package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Get returns the document stored under key. ok is false if the key has
// never been written.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM documents WHERE key = ?
	`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get document: %w", err)
	}
	return body, true, nil
}

// Put overwrites the document stored under key and bumps its revision.
// The first write of a key has revision 1.
func (s *Store) Put(ctx context.Context, key string, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (key, body, revision, updated_at)
		VALUES (?, ?, 1, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(key) DO UPDATE SET
			body = excluded.body,
			revision = documents.revision + 1,
			updated_at = excluded.updated_at
	`, key, doc)
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// Revision returns how many times key has been written, or 0 if never.
func (s *Store) Revision(ctx context.Context, key string) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, `
		SELECT revision FROM documents WHERE key = ?
	`, key).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get revision: %w", err)
	}
	return rev, nil
}
