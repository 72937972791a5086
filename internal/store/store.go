// Package store persists artist tag lists and computed similarities.
//
// Three backends implement Store: SQLite (the default, a single local file),
// Redis (shared key-value store) and Memory (process-local, used in tests and
// for dry runs).
package store

import (
	"context"
	"fmt"
	"strings"

	"artistnet/tagsim/internal/graph"
)

// TagStore maps artist names to ordered tag lists. It satisfies graph.TagSource.
type TagStore interface {
	graph.TagSource
	// SaveTags replaces the tag list stored for artist.
	SaveTags(ctx context.Context, artist string, tags []string) error
}

// SimilarityStore keeps similarity scores keyed by partition and the
// canonical (sorted) label pair.
type SimilarityStore interface {
	PutSimilarities(ctx context.Context, p graph.Partition, sims []graph.Similarity) error
	Similarity(ctx context.Context, p graph.Partition, a, b string) (float64, bool, error)
}

// Store is a combined tag and similarity store.
type Store interface {
	TagStore
	SimilarityStore
	// Clear removes all stored tags and similarities.
	Clear(ctx context.Context) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open returns the Store selected by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendSQLite:
		if opts.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite backend needs a database path")
		}
		return OpenSQLite(opts.SQLitePath)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (want sqlite, redis or memory)", opts.Backend)
	}
}

// canonicalPair orders a and b so that each unordered pair has one key.
func canonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
