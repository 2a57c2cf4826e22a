package models

import (
	"errors"
	"time"
	"unicode/utf8"
)

// MessageType identifies what an inbound or outbound realtime frame means.
type MessageType string

const (
	MessageTypeEnter MessageType = "ENTER"
	MessageTypeChat  MessageType = "CHAT"
	MessageTypeRead  MessageType = "READ"
	MessageTypeLeave MessageType = "LEAVE"
)

// MaxChatContentLen caps the rune length of a CHAT payload.
const MaxChatContentLen = 2000

// Validation errors for inbound frames. All of them are protocol violations:
// the connection that produced the frame gets closed.
var (
	ErrRoomIDRequired     = errors.New("room_id is required")
	ErrTypeRequired       = errors.New("type is required")
	ErrContentRequired    = errors.New("content is required for CHAT")
	ErrContentTooLong     = errors.New("content length exceeded")
	ErrContentNotAllowed  = errors.New("content must be empty for this type")
	ErrUnsupportedMsgType = errors.New("unsupported message type")
)

// InboundMessage is the envelope a client sends over the socket.
// The sender identity is never taken from the payload; it is resolved from
// the authenticated connection.
type InboundMessage struct {
	RoomID  int64       `json:"room_id"`
	Type    MessageType `json:"type"`
	Content string      `json:"content,omitempty"`
}

// Validate checks the per-type field constraints.
func (m InboundMessage) Validate() error {
	if m.RoomID == 0 {
		return ErrRoomIDRequired
	}
	switch m.Type {
	case MessageTypeChat:
		if m.Content == "" {
			return ErrContentRequired
		}
		if utf8.RuneCountInString(m.Content) > MaxChatContentLen {
			return ErrContentTooLong
		}
	case MessageTypeRead, MessageTypeEnter, MessageTypeLeave:
		if m.Content != "" {
			return ErrContentNotAllowed
		}
	case "":
		return ErrTypeRequired
	default:
		return ErrUnsupportedMsgType
	}
	return nil
}

// OutboundMessage is the envelope delivered to room participants.
// CHAT carries Content; READ carries LastReadMessageID.
type OutboundMessage struct {
	RoomID            int64       `json:"room_id"`
	Type              MessageType `json:"type"`
	SenderID          int64       `json:"sender_id"`
	Content           string      `json:"content,omitempty"`
	LastReadMessageID int64       `json:"last_read_message_id,omitempty"`
	Timestamp         time.Time   `json:"timestamp"`
}
