package chathub

import (
	"log"
	"sync"
	"time"
)

// WebSocket close codes used across the hub. The RFC 6455 codes cover the
// normal/protocol/server cases; 4500 is the application code for sessions
// dropped by the heartbeat sweep.
const (
	CloseNormal          = 1000
	CloseNotAcceptable   = 1003
	CloseBadData         = 1007
	ClosePolicyViolation = 1008
	CloseServerError     = 1011
	CloseNotReliable     = 4500
)

// Session is one live realtime connection for an authenticated user.
// It abstracts the underlying transport so the hub, guards and broadcaster
// can be tested without a real socket.
type Session interface {
	// ID returns the unique identifier of this connection.
	ID() string
	// UserID returns the authenticated user behind this connection.
	UserID() int64
	// Send writes one text frame. It must be safe for concurrent use.
	Send(payload []byte) error
	// Ping writes a ping control frame.
	Ping() error
	// Close closes the transport with the given code and reason. It is
	// idempotent and must swallow transport errors.
	Close(code int, reason string) error
	// IsOpen reports whether the transport is still usable.
	IsOpen() bool
}

// SessionRegistry tracks which user is connected through which session,
// which users are currently present in which room, and when each user was
// last seen. All maps are guarded internally; callers never lock.
type SessionRegistry struct {
	mu           sync.RWMutex
	sessions     map[int64]Session         // userID -> live session
	participants map[int64]map[int64]bool  // roomID -> set of userIDs
	lastActive   map[int64]time.Time       // userID -> last inbound activity
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions:     make(map[int64]Session),
		participants: make(map[int64]map[int64]bool),
		lastActive:   make(map[int64]time.Time),
	}
}

// Register installs the session as the single live connection for its user.
// If a previous session exists it is closed with a normal-closure code after
// the new one is already resolvable, so there is never a moment with two
// live handles for one user. The user's last-active clock starts now so a
// fresh connection cannot be reaped as idle before its first pong.
func (r *SessionRegistry) Register(s Session) {
	userID := s.UserID()

	r.mu.Lock()
	old := r.sessions[userID]
	r.sessions[userID] = s
	r.lastActive[userID] = time.Now()
	r.mu.Unlock()

	if old != nil && old != s && old.IsOpen() {
		// Close outside the lock: the close call is the one place the
		// registry touches the network.
		if err := old.Close(CloseNormal, "replaced by new session"); err != nil {
			log.Printf("[WS] old session close failed: userId=%d reason=%v", userID, err)
		}
		log.Printf("[WS] replaced session: userId=%d oldSessionId=%s", userID, old.ID())
	}
}

// ForceDisconnect closes the user's current session (if any) and purges all
// of the user's registry state. Safe to call for users with no session and
// for already-closed sessions.
func (r *SessionRegistry) ForceDisconnect(userID int64, code int, reason string) {
	r.mu.Lock()
	s := r.sessions[userID]
	r.purgeLocked(userID)
	r.mu.Unlock()

	if s != nil {
		if err := s.Close(code, reason); err != nil {
			log.Printf("[WS] close failed: userId=%d reason=%v", userID, err)
		}
		log.Printf("[WS] force disconnect: userId=%d code=%d reason=%s", userID, code, reason)
	}
}

// ForceDisconnectSession closes a session that may not be registered, e.g.
// one rejected before authentication finished. If the session is the
// registered one for its user, the user's state is purged as well.
func (r *SessionRegistry) ForceDisconnectSession(s Session, code int, reason string) {
	userID := s.UserID()

	r.mu.Lock()
	if r.sessions[userID] == s {
		r.purgeLocked(userID)
	}
	r.mu.Unlock()

	if err := s.Close(code, reason); err != nil {
		log.Printf("[WS] close failed: sessionId=%s reason=%v", s.ID(), err)
	}
}

// RemoveIfCurrent clears the user's registry state only if s is still the
// registered session. A replaced connection's teardown therefore cannot
// evict its successor. Returns whether state was removed.
func (r *SessionRegistry) RemoveIfCurrent(s Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.UserID()] != s {
		return false
	}
	r.purgeLocked(s.UserID())
	return true
}

// purgeLocked removes every trace of userID. Caller holds mu.
func (r *SessionRegistry) purgeLocked(userID int64) {
	delete(r.sessions, userID)
	delete(r.lastActive, userID)
	for roomID, set := range r.participants {
		delete(set, userID)
		if len(set) == 0 {
			delete(r.participants, roomID)
		}
	}
}

// JoinRoom adds the user to the room's participant set, creating the set
// lazily.
func (r *SessionRegistry) JoinRoom(roomID, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.participants[roomID]
	if set == nil {
		set = make(map[int64]bool)
		r.participants[roomID] = set
	}
	set[userID] = true
}

// LeaveRoom removes the user from the room's participant set and reports
// whether a removal actually happened. An emptied set is dropped.
func (r *SessionRegistry) LeaveRoom(roomID, userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.participants[roomID]
	if set == nil || !set[userID] {
		return false
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(r.participants, roomID)
	}
	return true
}

// Participants returns a snapshot of the room's current participant IDs.
func (r *SessionRegistry) Participants(roomID int64) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.participants[roomID]
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// IsParticipant reports whether the user has an active presence in the room.
func (r *SessionRegistry) IsParticipant(roomID, userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.participants[roomID][userID]
}

// Get returns the user's live session, or nil.
func (r *SessionRegistry) Get(userID int64) Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[userID]
}

// Snapshot returns a copy of the userID -> session map for iteration.
func (r *SessionRegistry) Snapshot() map[int64]Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int64]Session, len(r.sessions))
	for id, s := range r.sessions {
		out[id] = s
	}
	return out
}

// Touch records inbound activity for the user.
func (r *SessionRegistry) Touch(userID int64) {
	r.mu.Lock()
	r.lastActive[userID] = time.Now()
	r.mu.Unlock()
}

// LastActive returns the user's last recorded activity. Users with no
// record report the zero time, which always counts as idle.
func (r *SessionRegistry) LastActive(userID int64) time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActive[userID]
}
