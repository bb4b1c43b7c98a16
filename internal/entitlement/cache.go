package entitlement

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	active    bool
	expiresAt time.Time
}

// Cached remembers answers from another Checker for a short time. Errors are
// never cached.
type Cached struct {
	next  Checker
	cache *lru.Cache[string, cacheEntry]
	ttl   time.Duration
	now   func() time.Time
}

// NewCached wraps next. A size or ttl <= 0 returns next unchanged.
func NewCached(next Checker, size int, ttl time.Duration) Checker {
	if size <= 0 || ttl <= 0 {
		return next
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return next
	}
	return &Cached{next: next, cache: cache, ttl: ttl, now: time.Now}
}

func (c *Cached) Active(ctx context.Context, userID string) (bool, error) {
	now := c.now()
	if entry, ok := c.cache.Get(userID); ok && now.Before(entry.expiresAt) {
		return entry.active, nil
	}
	active, err := c.next.Active(ctx, userID)
	if err != nil {
		return false, err
	}
	c.cache.Add(userID, cacheEntry{active: active, expiresAt: now.Add(c.ttl)})
	return active, nil
}
