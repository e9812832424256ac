// Package persist snapshots raffle state into a key-value document store.
//
// The whole Pool and Ledger is written as one JSON document under one key,
// overwriting the previous version. Any backend with Get/Put semantics
// works: the SQLite store for local use, Redis for a shared deployment.
package persist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookclub/raffle/internal/raffle"
)

// DefaultKey is the document key used when none is configured.
const DefaultKey = "raffle:state"

// KV is a durable document store.
type KV interface {
	// Get returns the document stored under key. ok is false if absent.
	Get(ctx context.Context, key string) (doc []byte, ok bool, err error)

	// Put overwrites the document stored under key.
	Put(ctx context.Context, key string, doc []byte) error
}

// Adapter loads and saves raffle snapshots. It implements raffle.Persister.
type Adapter struct {
	kv     KV
	key    string
	size   int
	logger *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithKey sets the document key (default DefaultKey).
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithLogger sets the logger used to report recovery on Load.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Adapter for a pool of size tickets.
func New(kv KV, size int, opts ...Option) *Adapter {
	a := &Adapter{
		kv:     kv,
		key:    DefaultKey,
		size:   size,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the document key.
func (a *Adapter) Key() string {
	return a.key
}

// CorruptKey returns the key an unusable document is copied to before
// Load falls back to a fresh pool.
func (a *Adapter) CorruptKey() string {
	return a.key + ":corrupt"
}

// Load returns the stored snapshot.
//
// A missing, unparsable or inconsistent document is not an error: Load
// falls back to a fresh pool of Free tickets and an empty ledger and logs
// the reason. An unusable document is first copied to CorruptKey so the
// next Save does not lose it. Only backend failures are returned.
func (a *Adapter) Load(ctx context.Context) (raffle.Snapshot, error) {
	fresh := func(reason string, attrs ...any) (raffle.Snapshot, error) {
		if reason != "" {
			a.logger.Warn(reason, append([]any{"key", a.key}, attrs...)...)
		}
		snap, err := raffle.FreshSnapshot(a.size)
		if err != nil {
			return raffle.Snapshot{}, err
		}
		return snap, nil
	}

	doc, ok, err := a.kv.Get(ctx, a.key)
	if err != nil {
		return raffle.Snapshot{}, fmt.Errorf("load snapshot %q: %w", a.key, err)
	}
	if !ok {
		a.logger.Debug("no stored snapshot, starting fresh", "key", a.key, "size", a.size)
		return fresh("")
	}

	snap, err := Decode(doc)
	if err != nil {
		if qerr := a.quarantine(ctx, doc); qerr != nil {
			return raffle.Snapshot{}, qerr
		}
		return fresh("stored snapshot unreadable, starting fresh", "error", err, "copied_to", a.CorruptKey())
	}
	if err := raffle.Verify(snap, a.size); err != nil {
		if qerr := a.quarantine(ctx, doc); qerr != nil {
			return raffle.Snapshot{}, qerr
		}
		return fresh("stored snapshot inconsistent, starting fresh", "error", err, "copied_to", a.CorruptKey())
	}
	return snap, nil
}

func (a *Adapter) quarantine(ctx context.Context, doc []byte) error {
	if err := a.kv.Put(ctx, a.CorruptKey(), doc); err != nil {
		return fmt.Errorf("copy unusable snapshot to %q: %w", a.CorruptKey(), err)
	}
	return nil
}

// Save overwrites the stored document with snap.
func (a *Adapter) Save(ctx context.Context, snap raffle.Snapshot) error {
	doc, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := a.kv.Put(ctx, a.key, doc); err != nil {
		return fmt.Errorf("save snapshot %q: %w", a.key, err)
	}
	return nil
}
