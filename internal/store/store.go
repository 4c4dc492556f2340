package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("store: key not found")

// Member is a sorted-set member with its score.
type Member struct {
	Member string
	Score  float64
}

// Store is the narrow persistence contract the verification core depends
// on: a key-value store with TTL, hash objects, atomic counters and
// sorted-set indices. Production uses Redis; tests use MemoryStore.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Increment atomically increments a counter key and returns the new
	// value. A fresh key starts at zero.
	Increment(ctx context.Context, key string) (int64, error)

	// ExpireAt sets an absolute expiry on an existing key.
	ExpireAt(ctx context.Context, key string, at time.Time) error

	// GetObject returns all fields of a hash. A missing key yields an
	// empty map and no error.
	GetObject(ctx context.Context, key string) (map[string]string, error)
	SetObject(ctx context.Context, key string, fields map[string]string) error
	SetObjectField(ctx context.Context, key, field, value string) error

	SortedSetAdd(ctx context.Context, set string, score float64, member string) error
	SortedSetRemove(ctx context.Context, set string, member string) error

	// SortedSetScore returns the member's score and whether it exists.
	SortedSetScore(ctx context.Context, set, member string) (float64, bool, error)
	SortedSetCard(ctx context.Context, set string) (int64, error)

	// SortedSetRevRange returns members ordered by descending score,
	// inclusive of both offsets.
	SortedSetRevRange(ctx context.Context, set string, start, stop int64) ([]Member, error)

	// SortedSetRangeByScore returns members whose score falls in
	// [min, max], ascending.
	SortedSetRangeByScore(ctx context.Context, set string, min, max float64) ([]string, error)
}
