package chathub

import (
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 8192
)

// wsSession is the gorilla/websocket-backed Session. Writes are serialized
// with a mutex because the connection allows only one concurrent writer;
// reads happen on the session's own read loop.
type wsSession struct {
	id     string
	userID int64
	conn   *websocket.Conn

	writeMu sync.Mutex
	closed  atomic.Bool
}

func newWSSession(userID int64, conn *websocket.Conn) *wsSession {
	return &wsSession{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
	}
}

func (s *wsSession) ID() string    { return s.id }
func (s *wsSession) UserID() int64 { return s.userID }

func (s *wsSession) Send(payload []byte) error {
	if s.closed.Load() {
		return websocket.ErrCloseSent
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Ping sends a ping carrying the wall clock in millis, matching what the
// heartbeat sweep expects clients to echo.
func (s *wsSession) Ping() error {
	if s.closed.Load() {
		return websocket.ErrCloseSent
	}
	payload := []byte(strconv.FormatInt(time.Now().UnixMilli(), 10))
	return s.conn.WriteControl(websocket.PingMessage, payload, time.Now().Add(writeWait))
}

// Close sends a close frame with the given code and closes the transport.
// Idempotent; transport errors are logged and swallowed.
func (s *wsSession) Close(code int, reason string) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	frame := websocket.FormatCloseMessage(code, reason)
	if err := s.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeWait)); err != nil {
		log.Printf("[WS] close frame write failed sessionId=%s reason=%v", s.id, err)
	}
	if err := s.conn.Close(); err != nil {
		log.Printf("[WS] transport close failed sessionId=%s reason=%v", s.id, err)
	}
	return nil
}

func (s *wsSession) IsOpen() bool {
	return !s.closed.Load()
}
