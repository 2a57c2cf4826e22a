package chathub

import (
	"encoding/json"
	"log"
	"time"

	"anonchat/backend/internal/models"

	"github.com/gorilla/websocket"
)

// Hub wires the realtime core together: the session registry, the rate
// limiter, the access guard, the type dispatcher, the broadcaster, the
// persistence pipeline and the heartbeat sweep. One Hub serves the whole
// process; every connection gets its own read loop goroutine on top of it.
type Hub struct {
	Sessions    *SessionRegistry
	Limiter     *RateLimiter
	Guard       *AccessGuard
	Dispatcher  *Dispatcher
	Broadcaster *Broadcaster
	Pipeline    *ChatPipeline

	heartbeat *Heartbeat
}

// NewHub builds the core around the storage collaborator. A nil notifier
// falls back to the logging no-op.
func NewHub(store ChatStore, notifier Notifier) *Hub {
	sessions := NewSessionRegistry()
	guard := NewAccessGuard(store, sessions)
	broadcaster := NewBroadcaster(sessions)
	pipeline := NewChatPipeline(store, broadcaster, notifier)

	dispatcher := NewDispatcher(
		NewEnterHandler(sessions, guard),
		NewChatHandler(sessions, guard, pipeline),
		NewReadHandler(sessions, guard, store, broadcaster),
		NewLeaveHandler(sessions),
	)

	return &Hub{
		Sessions:    sessions,
		Limiter:     NewRateLimiter(),
		Guard:       guard,
		Dispatcher:  dispatcher,
		Broadcaster: broadcaster,
		Pipeline:    pipeline,
		heartbeat:   NewHeartbeat(sessions),
	}
}

// Start launches the background workers: the save pipeline and the
// heartbeat sweep.
func (h *Hub) Start() {
	h.Pipeline.Start()
	h.heartbeat.Start()
}

// Stop shuts the background workers down.
func (h *Hub) Stop() {
	h.heartbeat.Stop()
	h.Pipeline.Stop()
}

// Attach registers an upgraded, authenticated connection and starts its
// read loop. Any previous connection for the same user is replaced.
func (h *Hub) Attach(conn *websocket.Conn, userID int64) {
	s := newWSSession(userID, conn)
	h.Sessions.Register(s)
	log.Printf("[WS] connected userId=%d sessionId=%s", userID, s.ID())
	go h.readLoop(s)
}

// readLoop processes one connection's inbound frames in arrival order.
// Every frame refreshes the user's last-activity clock and passes the rate
// limiter before being dispatched. The loop only ever exits through a
// closed transport; on the way out it clears the connection's state unless
// a replacement session already took over.
func (h *Hub) readLoop(s *wsSession) {
	defer h.detach(s)
	userID := s.UserID()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		h.Sessions.Touch(userID)
		return nil
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] read error userId=%d sessionId=%s: %v", userID, s.ID(), err)
			}
			return
		}
		h.Sessions.Touch(userID)
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var in models.InboundMessage
		if err := json.Unmarshal(payload, &in); err != nil {
			log.Printf("[WS] bad payload sessionId=%s reason=%v", s.ID(), err)
			h.Sessions.ForceDisconnectSession(s, CloseBadData, "malformed payload")
			return
		}

		if !h.Limiter.Allow(userID, in.Type) {
			log.Printf("[WS-POLICY] rate limit exceeded userId=%d type=%s", userID, in.Type)
			h.Sessions.ForceDisconnectSession(s, ClosePolicyViolation, "rate limit exceeded")
			return
		}

		if !h.dispatchSafe(s, in) {
			return
		}
	}
}

// detach runs a connection's teardown. Registry state is removed only if s
// is still the current session, but the limiter is cleared on every exit
// where the user has no live connection left: a force-disconnect purges the
// registry entry before the read loop unwinds, and that exit must still
// drop the user's rate buckets. Only a replacement, where a successor
// session is live, keeps them.
func (h *Hub) detach(s Session) {
	userID := s.UserID()
	h.Sessions.RemoveIfCurrent(s)
	if h.Sessions.Get(userID) == nil {
		h.Limiter.Clear(userID)
	}
	s.Close(CloseNormal, "connection closed")
	log.Printf("[WS] disconnected userId=%d sessionId=%s", userID, s.ID())
}

// dispatchSafe dispatches one frame, converting validation failures into a
// bad-data close and handler panics into a server-error close so a broken
// handler can never take the process down. Returns whether the loop should
// keep reading.
func (h *Hub) dispatchSafe(s *wsSession, in models.InboundMessage) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WS] handler panic sessionId=%s type=%s: %v", s.ID(), in.Type, r)
			h.Sessions.ForceDisconnectSession(s, CloseServerError, "internal error")
			ok = false
		}
	}()

	if err := h.Dispatcher.Dispatch(s, in); err != nil {
		log.Printf("[WS] dispatch rejected sessionId=%s reason=%v", s.ID(), err)
		h.Sessions.ForceDisconnectSession(s, CloseBadData, err.Error())
		return false
	}
	return s.IsOpen()
}
