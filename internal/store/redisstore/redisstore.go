// Package redisstore keeps raffle snapshots in Redis.
//
// It shares the document model of the SQLite store: one value per key,
// overwritten on every save, with a revision counter kept next to it.
// Several engine processes can point at the same Redis; the last Put wins.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store implements persist.KV on a Redis client.
type Store struct {
	rdb *redis.Client
}

// New wraps an existing client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Dial connects to addr and checks the server answers.
func Dial(ctx context.Context, addr string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return New(rdb), nil
}

func revisionKey(key string) string {
	return key + ":rev"
}

// Get returns the document stored under key. ok is false if absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	doc, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get document: %w", err)
	}
	return doc, true, nil
}

// Put overwrites the document under key and bumps its revision in the
// same transaction.
func (s *Store) Put(ctx context.Context, key string, doc []byte) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, doc, 0)
		pipe.Incr(ctx, revisionKey(key))
		return nil
	})
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// Revision returns how many times key has been written, or 0 if never.
func (s *Store) Revision(ctx context.Context, key string) (int64, error) {
	rev, err := s.rdb.Get(ctx, revisionKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get revision: %w", err)
	}
	return rev, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
