package chathub

import (
	"encoding/json"
	"log"

	"anonchat/backend/internal/models"
)

// Broadcaster fans one outbound envelope out to a room's current
// participants. The envelope is serialized once per call; each target is
// attempted independently, and a target whose session is missing, closed or
// failing is disconnected and skipped without aborting delivery to the rest.
type Broadcaster struct {
	sessions *SessionRegistry
}

// NewBroadcaster wires the broadcaster to the session registry.
func NewBroadcaster(sessions *SessionRegistry) *Broadcaster {
	return &Broadcaster{sessions: sessions}
}

// Broadcast delivers the envelope to every participant of the room and
// returns how many received it.
func (b *Broadcaster) Broadcast(roomID int64, msg models.OutboundMessage) int {
	return b.BroadcastExcept(roomID, msg, 0)
}

// BroadcastExcept delivers to every participant except excludeUserID
// (0 excludes nobody) and returns how many received it. A serialization
// failure delivers to nobody.
func (b *Broadcaster) BroadcastExcept(roomID int64, msg models.OutboundMessage, excludeUserID int64) int {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WS-BC] serialize failed roomId=%d reason=%v", roomID, err)
		return 0
	}

	delivered := 0
	for _, participantID := range b.sessions.Participants(roomID) {
		if excludeUserID != 0 && participantID == excludeUserID {
			continue
		}
		if b.sendToParticipant(participantID, payload) {
			delivered++
		}
	}
	return delivered
}

// sendToParticipant attempts one delivery. Any failure counts as evidence
// of a broken connection and force-disconnects the target.
func (b *Broadcaster) sendToParticipant(participantID int64, payload []byte) bool {
	s := b.sessions.Get(participantID)
	if s == nil {
		log.Printf("[WS-BC] skip(no session) userId=%d", participantID)
		b.sessions.ForceDisconnect(participantID, CloseNotReliable, "no live session")
		return false
	}
	if !s.IsOpen() {
		log.Printf("[WS-BC] skip(closed) userId=%d", participantID)
		b.sessions.ForceDisconnect(participantID, CloseNotReliable, "session closed")
		return false
	}
	if err := s.Send(payload); err != nil {
		log.Printf("[WS-BC] send failed userId=%d sessionId=%s reason=%v", participantID, s.ID(), err)
		b.sessions.ForceDisconnect(participantID, CloseNotReliable, "send failed")
		return false
	}
	return true
}
