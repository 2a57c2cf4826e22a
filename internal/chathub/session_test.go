package chathub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_RegisterReplacesOldSession(t *testing.T) {
	r := NewSessionRegistry()
	first := newStubSession(1)
	second := newStubSession(1)

	r.Register(first)
	r.Register(second)

	assert.Same(t, second, r.Get(1).(*stubSession))
	assert.False(t, first.IsOpen(), "replaced session must be closed")
	code, _ := first.closedWith()
	assert.Equal(t, CloseNormal, code, "replacement closes with normal-closure code")
	assert.True(t, second.IsOpen())
}

func TestRegistry_ForceDisconnectPurgesEverything(t *testing.T) {
	r := NewSessionRegistry()
	s := newStubSession(1)
	r.Register(s)
	r.JoinRoom(10, 1)
	r.JoinRoom(11, 1)

	r.ForceDisconnect(1, CloseNotReliable, "test")

	assert.Nil(t, r.Get(1))
	assert.False(t, r.IsParticipant(10, 1))
	assert.False(t, r.IsParticipant(11, 1))
	assert.False(t, s.IsOpen())
	code, _ := s.closedWith()
	assert.Equal(t, CloseNotReliable, code)

	// Idempotent: a second call on an absent user is a no-op.
	r.ForceDisconnect(1, CloseServerError, "again")
	assert.Equal(t, CloseNotReliable, code)
}

func TestRegistry_LeaveRoomReportsRemoval(t *testing.T) {
	r := NewSessionRegistry()
	r.JoinRoom(10, 1)
	r.JoinRoom(10, 2)

	assert.True(t, r.LeaveRoom(10, 1))
	assert.False(t, r.LeaveRoom(10, 1), "second leave is a no-op")
	assert.False(t, r.LeaveRoom(99, 1), "unknown room is a no-op")

	assert.True(t, r.LeaveRoom(10, 2))
	r.mu.RLock()
	_, exists := r.participants[10]
	r.mu.RUnlock()
	assert.False(t, exists, "emptied participant set must be dropped")
}

func TestRegistry_Participants(t *testing.T) {
	r := NewSessionRegistry()
	r.JoinRoom(10, 1)
	r.JoinRoom(10, 2)

	assert.ElementsMatch(t, []int64{1, 2}, r.Participants(10))
	assert.Empty(t, r.Participants(99))
	assert.True(t, r.IsParticipant(10, 1))
	assert.False(t, r.IsParticipant(10, 3))
}

func TestRegistry_RemoveIfCurrent(t *testing.T) {
	r := NewSessionRegistry()
	first := newStubSession(1)
	second := newStubSession(1)

	r.Register(first)
	r.Register(second)

	// The replaced connection's teardown must not evict its successor.
	assert.False(t, r.RemoveIfCurrent(first))
	assert.Same(t, second, r.Get(1).(*stubSession))

	assert.True(t, r.RemoveIfCurrent(second))
	assert.Nil(t, r.Get(1))
}

func TestRegistry_TouchAndLastActive(t *testing.T) {
	r := NewSessionRegistry()
	assert.True(t, r.LastActive(1).IsZero(), "unknown user reports zero time")

	s := newStubSession(1)
	r.Register(s)
	registered := r.LastActive(1)
	assert.False(t, registered.IsZero(), "registration initializes the clock")

	time.Sleep(5 * time.Millisecond)
	r.Touch(1)
	assert.True(t, r.LastActive(1).After(registered))
}

func TestRegistry_ForceDisconnectSessionUnregistered(t *testing.T) {
	r := NewSessionRegistry()
	s := newStubSession(7)

	// Never registered: only the transport gets closed.
	r.ForceDisconnectSession(s, CloseNotAcceptable, "handshake rejected")
	assert.False(t, s.IsOpen())
	code, _ := s.closedWith()
	assert.Equal(t, CloseNotAcceptable, code)
}
