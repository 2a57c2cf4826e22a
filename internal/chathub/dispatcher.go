package chathub

import (
	"fmt"
	"log"

	"anonchat/backend/internal/models"
)

// MessageHandler processes one inbound message type. Implementations own
// their failure handling: anything unexpected inside a handler closes the
// offending connection rather than propagating.
type MessageHandler interface {
	// Type returns the message type this handler is registered for.
	Type() models.MessageType
	// Handle processes an inbound message from the given session.
	Handle(s Session, in models.InboundMessage)
}

// Dispatcher routes an inbound envelope to the handler registered for its
// type. The type set is a fixed enumeration; an envelope with no handler is
// a protocol violation, never a silent drop.
type Dispatcher struct {
	handlers map[models.MessageType]MessageHandler
}

// NewDispatcher registers the given handlers by type. Registering two
// handlers for one type is a programming error and panics at startup.
func NewDispatcher(handlers ...MessageHandler) *Dispatcher {
	m := make(map[models.MessageType]MessageHandler, len(handlers))
	for _, h := range handlers {
		if _, dup := m[h.Type()]; dup {
			panic(fmt.Sprintf("chathub: duplicate handler for type %s", h.Type()))
		}
		m[h.Type()] = h
	}
	return &Dispatcher{handlers: m}
}

// Dispatch validates the envelope and hands it to its handler. A validation
// failure or unknown type is returned as an error; the caller treats it as
// a protocol violation and closes the connection.
func (d *Dispatcher) Dispatch(s Session, in models.InboundMessage) error {
	if err := in.Validate(); err != nil {
		return err
	}
	h := d.handlers[in.Type]
	if h == nil {
		return fmt.Errorf("%w: %s", models.ErrUnsupportedMsgType, in.Type)
	}
	log.Printf("[WS] dispatch type=%s roomId=%d sessionId=%s", in.Type, in.RoomID, s.ID())
	h.Handle(s, in)
	return nil
}
