package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvictIdleDropsStaleClients(t *testing.T) {
	l := New(1, 1)
	defer l.Close()

	l.Allow("stale")
	l.Allow("fresh")

	l.mu.Lock()
	l.clients["stale"].lastSeen = time.Now().Add(-2 * idleEviction)
	l.mu.Unlock()

	l.evictIdle(time.Now().Add(-idleEviction))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.clients, "stale")
	assert.Contains(t, l.clients, "fresh")
}

func TestEvictedClientGetsFreshBucket(t *testing.T) {
	l := New(1, 1)
	defer l.Close()

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a")) // burst of one is spent

	l.mu.Lock()
	l.clients["a"].lastSeen = time.Now().Add(-2 * idleEviction)
	l.mu.Unlock()
	l.evictIdle(time.Now().Add(-idleEviction))

	assert.True(t, l.Allow("a"))
}

func TestCloseIsIdempotent(t *testing.T) {
	l := New(1, 1)
	l.Close()
	l.Close()

	// The limiter keeps serving after shutdown; only eviction stops.
	assert.True(t, l.Allow("a"))
}
