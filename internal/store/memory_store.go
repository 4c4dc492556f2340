package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests. Expiry is evaluated
// lazily on access against the injected clock.
type MemoryStore struct {
	mu      sync.Mutex
	strings map[string]string
	hashes  map[string]map[string]string
	zsets   map[string]map[string]float64
	expiry  map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strings: make(map[string]string),
		hashes:  make(map[string]map[string]string),
		zsets:   make(map[string]map[string]float64),
		expiry:  make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetClock overrides the store's notion of now. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// expireLocked drops the key if its TTL has passed. Caller holds the lock.
func (s *MemoryStore) expireLocked(key string) {
	if at, ok := s.expiry[key]; ok && !s.now().Before(at) {
		delete(s.strings, key)
		delete(s.hashes, key)
		delete(s.expiry, key)
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(key)
	val, ok := s.strings[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strings[key] = value
	if ttl > 0 {
		s.expiry[key] = s.now().Add(ttl)
	} else {
		delete(s.expiry, key)
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.strings, key)
		delete(s.hashes, key)
		delete(s.zsets, key)
		delete(s.expiry, key)
	}
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(key)
	if _, ok := s.strings[key]; ok {
		return true, nil
	}
	if _, ok := s.hashes[key]; ok {
		return true, nil
	}
	return false, nil
}

func (s *MemoryStore) Increment(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(key)
	n, _ := strconv.ParseInt(s.strings[key], 10, 64)
	n++
	s.strings[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (s *MemoryStore) ExpireAt(ctx context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, hasString := s.strings[key]
	_, hasHash := s.hashes[key]
	if hasString || hasHash {
		s.expiry[key] = at
	}
	return nil
}

func (s *MemoryStore) GetObject(ctx context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(key)
	fields := make(map[string]string, len(s.hashes[key]))
	for k, v := range s.hashes[key] {
		fields[k] = v
	}
	return fields, nil
}

func (s *MemoryStore) SetObject(ctx context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string)
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (s *MemoryStore) SetObjectField(ctx context.Context, key, field, value string) error {
	return s.SetObject(ctx, key, map[string]string{field: value})
}

func (s *MemoryStore) SortedSetAdd(ctx context.Context, set string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zsets[set]
	if !ok {
		z = make(map[string]float64)
		s.zsets[set] = z
	}
	z[member] = score
	return nil
}

func (s *MemoryStore) SortedSetRemove(ctx context.Context, set string, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.zsets[set], member)
	return nil
}

func (s *MemoryStore) SortedSetScore(ctx context.Context, set, member string) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	score, ok := s.zsets[set][member]
	return score, ok, nil
}

func (s *MemoryStore) SortedSetCard(ctx context.Context, set string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.zsets[set])), nil
}

func (s *MemoryStore) SortedSetRevRange(ctx context.Context, set string, start, stop int64) ([]Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]Member, 0, len(s.zsets[set]))
	for m, score := range s.zsets[set] {
		members = append(members, Member{Member: m, Score: score})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return members[i].Member > members[j].Member
	})
	if start < 0 {
		start = 0
	}
	if start >= int64(len(members)) {
		return nil, nil
	}
	if stop < 0 || stop >= int64(len(members)) {
		stop = int64(len(members)) - 1
	}
	return members[start : stop+1], nil
}

func (s *MemoryStore) SortedSetRangeByScore(ctx context.Context, set string, min, max float64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for m, score := range s.zsets[set] {
		if score >= min && score <= max {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}
