package idempotency

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const Header = "Idempotency-Key"

// LockTTL bounds how long a key stays in flight. A holder that dies before
// Remember or Release frees the key after this.
const LockTTL = time.Minute

func lockTTL(ttl time.Duration) time.Duration {
	return min(ttl, LockTTL)
}

// Key returns the trimmed Idempotency-Key header of r, or "".
func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

// Store records which idempotency keys are in flight and what they produced.
// Scope separates keys of different callers.
type Store interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}
