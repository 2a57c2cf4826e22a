package chathub

import (
	"log"
	"time"

	"anonchat/backend/internal/models"
)

// EnterHandler admits a user into a room's live participant set after the
// durable membership check passes. ENTER is never broadcast.
type EnterHandler struct {
	sessions *SessionRegistry
	guard    *AccessGuard
}

func NewEnterHandler(sessions *SessionRegistry, guard *AccessGuard) *EnterHandler {
	return &EnterHandler{sessions: sessions, guard: guard}
}

func (h *EnterHandler) Type() models.MessageType { return models.MessageTypeEnter }

func (h *EnterHandler) Handle(s Session, in models.InboundMessage) {
	userID := s.UserID()
	if !h.guard.EnsureEnterAllowed(s, in.RoomID, userID) {
		return
	}
	h.sessions.JoinRoom(in.RoomID, userID)
	log.Printf("[WS-ENTER] userId=%d roomId=%d", userID, in.RoomID)
}

// ChatHandler accepts a chat message from a participant, hands it to the
// persistence pipeline and returns promptly; the broadcast happens after
// the save commits. Anything unexpected closes the connection rather than
// risking partial or duplicate state.
type ChatHandler struct {
	sessions *SessionRegistry
	guard    *AccessGuard
	pipeline *ChatPipeline
}

func NewChatHandler(sessions *SessionRegistry, guard *AccessGuard, pipeline *ChatPipeline) *ChatHandler {
	return &ChatHandler{sessions: sessions, guard: guard, pipeline: pipeline}
}

func (h *ChatHandler) Type() models.MessageType { return models.MessageTypeChat }

func (h *ChatHandler) Handle(s Session, in models.InboundMessage) {
	senderID := s.UserID()
	if !h.guard.EnsureParticipant(s, in.RoomID, senderID) {
		return
	}
	log.Printf("[WS-CHAT] roomId=%d senderId=%d", in.RoomID, senderID)
	h.pipeline.Enqueue(in.RoomID, senderID, in.Content)
}

// ReadHandler marks the room read for the caller and echoes a read receipt
// to the other participants. The sender does not need its own receipt back.
type ReadHandler struct {
	sessions    *SessionRegistry
	guard       *AccessGuard
	store       ChatStore
	broadcaster *Broadcaster
}

func NewReadHandler(sessions *SessionRegistry, guard *AccessGuard, store ChatStore, broadcaster *Broadcaster) *ReadHandler {
	return &ReadHandler{sessions: sessions, guard: guard, store: store, broadcaster: broadcaster}
}

func (h *ReadHandler) Type() models.MessageType { return models.MessageTypeRead }

func (h *ReadHandler) Handle(s Session, in models.InboundMessage) {
	userID := s.UserID()
	if !h.guard.EnsureParticipant(s, in.RoomID, userID) {
		return
	}

	lastReadID, err := h.store.MarkMessagesAsRead(in.RoomID, userID)
	if err != nil {
		log.Printf("[WS-READ] mark read failed userId=%d roomId=%d err=%v", userID, in.RoomID, err)
		h.sessions.ForceDisconnectSession(s, CloseServerError, "mark read failed")
		return
	}
	if lastReadID == nil {
		// Nothing was unread; no receipt to send.
		return
	}

	out := models.OutboundMessage{
		RoomID:            in.RoomID,
		Type:              models.MessageTypeRead,
		SenderID:          userID,
		LastReadMessageID: *lastReadID,
		Timestamp:         time.Now(),
	}
	log.Printf("[WS-READ] roomId=%d userId=%d lastReadMessageId=%d", in.RoomID, userID, *lastReadID)
	h.broadcaster.BroadcastExcept(in.RoomID, out, userID)
}

// LeaveHandler removes the user from the room's live participant set. It
// needs no access check beyond the connection identity and never fails the
// connection; leaving a room you are not in is a logged no-op.
type LeaveHandler struct {
	sessions *SessionRegistry
}

func NewLeaveHandler(sessions *SessionRegistry) *LeaveHandler {
	return &LeaveHandler{sessions: sessions}
}

func (h *LeaveHandler) Type() models.MessageType { return models.MessageTypeLeave }

func (h *LeaveHandler) Handle(s Session, in models.InboundMessage) {
	userID := s.UserID()
	if h.sessions.LeaveRoom(in.RoomID, userID) {
		log.Printf("[WS-LEAVE] userId=%d roomId=%d", userID, in.RoomID)
	} else {
		log.Printf("[WS-LEAVE] no-op (not a participant) userId=%d roomId=%d", userID, in.RoomID)
	}
}
