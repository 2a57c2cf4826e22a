package chathub

import (
	"sync"
	"time"

	"anonchat/backend/internal/models"
)

// Per-type bucket policies. CHAT gets a generous allowance, presence
// actions a small one.
const (
	chatCapacity     = 20
	chatRefillPerSec = 20

	readCapacity     = 10
	readRefillPerSec = 10

	presenceCapacity     = 5
	presenceRefillPerSec = 2
)

// RateLimiter admits or rejects inbound frames with one token bucket per
// (user, message type). Buckets are created lazily, never persisted, and
// dropped on disconnect via Clear. Allow is pure in-memory arithmetic and is
// called on every inbound frame.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[int64]map[models.MessageType]*tokenBucket
	now     func() time.Time
}

// NewRateLimiter creates an empty limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[int64]map[models.MessageType]*tokenBucket),
		now:     time.Now,
	}
}

// Allow refills the bucket for (userID, t) proportionally to elapsed time
// and consumes one token if available.
func (l *RateLimiter) Allow(userID int64, t models.MessageType) bool {
	l.mu.Lock()
	userBuckets := l.buckets[userID]
	if userBuckets == nil {
		userBuckets = make(map[models.MessageType]*tokenBucket)
		l.buckets[userID] = userBuckets
	}
	bucket := userBuckets[t]
	if bucket == nil {
		bucket = newBucketFor(t, l.now)
		userBuckets[t] = bucket
	}
	l.mu.Unlock()

	// Buckets serialize their own refill+consume, so independent buckets
	// never contend with each other.
	return bucket.tryConsume()
}

// Clear drops all of a user's buckets. Called on disconnect to bound memory.
func (l *RateLimiter) Clear(userID int64) {
	l.mu.Lock()
	delete(l.buckets, userID)
	l.mu.Unlock()
}

func newBucketFor(t models.MessageType, now func() time.Time) *tokenBucket {
	switch t {
	case models.MessageTypeChat:
		return newTokenBucket(chatCapacity, chatRefillPerSec, now)
	case models.MessageTypeRead:
		return newTokenBucket(readCapacity, readRefillPerSec, now)
	default: // ENTER, LEAVE
		return newTokenBucket(presenceCapacity, presenceRefillPerSec, now)
	}
}

// tokenBucket holds a capped pool of tokens refilled over wall-clock time.
type tokenBucket struct {
	mu           sync.Mutex
	capacity     float64
	refillPerSec float64
	tokens       float64
	last         time.Time
	now          func() time.Time
}

func newTokenBucket(capacity, refillPerSec float64, now func() time.Time) *tokenBucket {
	return &tokenBucket{
		capacity:     capacity,
		refillPerSec: refillPerSec,
		tokens:       capacity,
		last:         now(),
		now:          now,
	}
}

func (b *tokenBucket) tryConsume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true
	}
	return false
}

func (b *tokenBucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.last).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens = min(b.capacity, b.tokens+elapsed*b.refillPerSec)
	b.last = now
}
