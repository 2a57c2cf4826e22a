package chathub

import (
	"testing"

	"anonchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limiterTracks(l *RateLimiter, userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buckets[userID] != nil
}

func TestHub_DetachClearsLimiterOnNormalExit(t *testing.T) {
	h := NewHub(new(MockStore), nil)

	s := newStubSession(42)
	h.Sessions.Register(s)
	require.True(t, h.Limiter.Allow(42, models.MessageTypeLeave))
	require.True(t, limiterTracks(h.Limiter, 42))

	h.detach(s)

	assert.Nil(t, h.Sessions.Get(42))
	assert.False(t, limiterTracks(h.Limiter, 42))
}

func TestHub_DetachClearsLimiterAfterForceDisconnect(t *testing.T) {
	h := NewHub(new(MockStore), nil)

	s := newStubSession(42)
	h.Sessions.Register(s)
	require.True(t, h.Limiter.Allow(42, models.MessageTypeLeave))

	// A policy breach purges the registry entry before the read loop
	// unwinds into its teardown.
	h.Sessions.ForceDisconnectSession(s, ClosePolicyViolation, "rate limit exceeded")
	require.Nil(t, h.Sessions.Get(42))
	require.True(t, limiterTracks(h.Limiter, 42))

	h.detach(s)

	assert.False(t, limiterTracks(h.Limiter, 42), "buckets must not outlive the connection")
}

func TestHub_ReplacedSessionTeardownKeepsSuccessorLimits(t *testing.T) {
	h := NewHub(new(MockStore), nil)

	first := newStubSession(42)
	second := newStubSession(42)
	h.Sessions.Register(first)
	h.Sessions.Register(second)
	require.True(t, h.Limiter.Allow(42, models.MessageTypeChat))

	// The replaced connection's read loop unwinds last; the successor is
	// live, so the user's rate accounting stays.
	h.detach(first)

	assert.Same(t, second, h.Sessions.Get(42).(*stubSession))
	assert.True(t, limiterTracks(h.Limiter, 42))
	assert.False(t, first.IsOpen())
	assert.True(t, second.IsOpen())
}
