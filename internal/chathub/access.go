package chathub

import "log"

// AccessGuard gates room-scoped actions. Entering a room is an authorization
// question answered by durable membership; acting inside a room without
// having entered it on this connection is a protocol violation answered by
// the in-memory participant set. Both failures close the connection.
type AccessGuard struct {
	store    ChatStore
	sessions *SessionRegistry
}

// NewAccessGuard wires the guard to the membership store and the registry.
func NewAccessGuard(store ChatStore, sessions *SessionRegistry) *AccessGuard {
	return &AccessGuard{store: store, sessions: sessions}
}

// EnsureEnterAllowed verifies durable room membership. On denial (or a
// storage failure, which must not fail open) the session is closed and the
// caller must not proceed.
func (g *AccessGuard) EnsureEnterAllowed(s Session, roomID, userID int64) bool {
	member, err := g.store.IsMember(roomID, userID)
	if err != nil {
		log.Printf("[WS-POLICY] membership check failed userId=%d roomId=%d err=%v", userID, roomID, err)
		g.sessions.ForceDisconnectSession(s, CloseServerError, "membership check failed")
		return false
	}
	if !member {
		log.Printf("[WS-POLICY] ENTER denied userId=%d roomId=%d", userID, roomID)
		g.sessions.ForceDisconnectSession(s, ClosePolicyViolation, "not a room member")
		return false
	}
	return true
}

// EnsureParticipant verifies the user entered the room during this
// connection's lifetime. Acting without having entered closes the session
// as bad data.
func (g *AccessGuard) EnsureParticipant(s Session, roomID, userID int64) bool {
	if !g.sessions.IsParticipant(roomID, userID) {
		log.Printf("[WS-POLICY] not a participant userId=%d roomId=%d -> closing", userID, roomID)
		g.sessions.ForceDisconnectSession(s, CloseBadData, "not a participant")
		return false
	}
	return true
}
