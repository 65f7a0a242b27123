package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "jwt:blacklist:"

// TokenBlacklist remembers logged-out tokens until they would have expired anyway.
// It prefers Redis and falls back to process memory when no client is configured.
type TokenBlacklist struct {
	rc  *redis.Client
	mu  sync.Mutex
	mem map[string]time.Time
	now func() time.Time
}

// NewTokenBlacklist creates a blacklist on rc, which may be nil.
func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, mem: map[string]time.Time{}, now: time.Now}
}

// Revoke blacklists token until expiresAt. Already expired tokens are ignored.
func (b *TokenBlacklist) Revoke(token string, expiresAt time.Time) {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := b.rc.Set(ctx, blacklistPrefix+token, "1", ttl).Err(); err != nil {
			Sugar.Warnf("token revoke failed: %v", err)
		}
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purgeLocked()
	b.mem[token] = expiresAt
}

// IsRevoked reports whether token was revoked before its natural expiry.
func (b *TokenBlacklist) IsRevoked(token string) bool {
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := b.rc.Exists(ctx, blacklistPrefix+token).Result()
		if err != nil {
			// fail open: a Redis outage must not lock every user out
			Sugar.Warnf("token blacklist lookup failed: %v", err)
			return false
		}
		return n > 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.mem[token]
	if !ok {
		return false
	}
	if !b.now().Before(exp) {
		delete(b.mem, token)
		return false
	}
	return true
}

func (b *TokenBlacklist) purgeLocked() {
	now := b.now()
	for tok, exp := range b.mem {
		if !now.Before(exp) {
			delete(b.mem, tok)
		}
	}
}
