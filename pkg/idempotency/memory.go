package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used when no redis is configured.
// Expired entries are swept at most once per LockTTL.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
	locks     map[string]time.Time
	values    map[string]memoryValue
}

type memoryValue struct {
	value   string
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		now:    time.Now,
		locks:  make(map[string]time.Time),
		values: make(map[string]memoryValue),
	}
}

func (s *MemoryStore) TryLock(_ context.Context, scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	k := lockKey(scope, key)
	if exp, ok := s.locks[k]; ok && now.Before(exp) {
		return false, nil
	}
	s.locks[k] = now.Add(lockTTL(s.ttl))
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, lockKey(scope, key))
	return nil
}

// Remember stores value and frees the in-flight lock of the key.
func (s *MemoryStore) Remember(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	delete(s.locks, lockKey(scope, key))
	s.values[mapKey(scope, key)] = memoryValue{value: value, expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Recall(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := mapKey(scope, key)
	v, ok := s.values[k]
	if !ok {
		return "", false, nil
	}
	if !s.now().Before(v.expires) {
		delete(s.values, k)
		return "", false, nil
	}
	return v.value, true, nil
}

// sweep drops expired locks and values. Callers hold s.mu.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	s.nextSweep = now.Add(lockTTL(s.ttl))

	for k, exp := range s.locks {
		if !now.Before(exp) {
			delete(s.locks, k)
		}
	}
	for k, v := range s.values {
		if !now.Before(v.expires) {
			delete(s.values, k)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
