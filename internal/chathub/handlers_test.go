package chathub

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"anonchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnterHandler_MemberJoinsWithoutBroadcast(t *testing.T) {
	r := NewSessionRegistry()
	store := new(MockStore)
	store.On("IsMember", int64(3), int64(1)).Return(true, nil)
	h := NewEnterHandler(r, NewAccessGuard(store, r))

	s := newStubSession(1)
	peer := newStubSession(2)
	r.Register(s)
	r.Register(peer)
	r.JoinRoom(3, 2)

	h.Handle(s, models.InboundMessage{RoomID: 3, Type: models.MessageTypeEnter})

	assert.True(t, r.IsParticipant(3, 1))
	assert.Equal(t, 0, peer.sentCount())
}

func TestEnterHandler_NonMemberIsRejected(t *testing.T) {
	r := NewSessionRegistry()
	store := new(MockStore)
	store.On("IsMember", int64(3), int64(9)).Return(false, nil)
	h := NewEnterHandler(r, NewAccessGuard(store, r))

	s := newStubSession(9)
	r.Register(s)

	h.Handle(s, models.InboundMessage{RoomID: 3, Type: models.MessageTypeEnter})

	assert.False(t, r.IsParticipant(3, 9))
	assert.False(t, s.IsOpen())
}

func TestChatHandler_PersistsThenBroadcastsToRoom(t *testing.T) {
	r := NewSessionRegistry()
	b := NewBroadcaster(r)
	store := new(MockStore)
	store.On("SaveChatMessage", int64(3), int64(1), "hello there").Return(int64(77), nil)

	pipeline := NewChatPipeline(store, b, nil)
	pipeline.Start()
	defer pipeline.Stop()

	h := NewChatHandler(r, NewAccessGuard(store, r), pipeline)

	sender := newStubSession(1)
	peer := newStubSession(2)
	r.Register(sender)
	r.Register(peer)
	r.JoinRoom(3, 1)
	r.JoinRoom(3, 2)

	h.Handle(sender, models.InboundMessage{RoomID: 3, Type: models.MessageTypeChat, Content: "hello there"})
	time.Sleep(100 * time.Millisecond)

	store.AssertExpectations(t)
	require.Equal(t, 1, peer.sentCount())

	var out models.OutboundMessage
	peer.mu.Lock()
	payload := peer.sent[0]
	peer.mu.Unlock()
	require.NoError(t, json.Unmarshal(payload, &out))
	assert.Equal(t, models.MessageTypeChat, out.Type)
	assert.Equal(t, int64(1), out.SenderID)
	assert.Equal(t, "hello there", out.Content)
}

func TestChatHandler_RequiresEnterFirst(t *testing.T) {
	r := NewSessionRegistry()
	store := new(MockStore)
	pipeline := NewChatPipeline(store, NewBroadcaster(r), nil)
	h := NewChatHandler(r, NewAccessGuard(store, r), pipeline)

	s := newStubSession(1)
	r.Register(s)

	h.Handle(s, models.InboundMessage{RoomID: 3, Type: models.MessageTypeChat, Content: "hi"})

	assert.False(t, s.IsOpen())
	code, _ := s.closedWith()
	assert.Equal(t, CloseBadData, code)
	store.AssertNotCalled(t, "SaveChatMessage")
}

func TestReadHandler_ReceiptGoesToOthersOnly(t *testing.T) {
	r := NewSessionRegistry()
	b := NewBroadcaster(r)
	store := new(MockStore)
	lastID := int64(42)
	store.On("MarkMessagesAsRead", int64(3), int64(1)).Return(&lastID, nil)

	h := NewReadHandler(r, NewAccessGuard(store, r), store, b)

	reader := newStubSession(1)
	peer := newStubSession(2)
	r.Register(reader)
	r.Register(peer)
	r.JoinRoom(3, 1)
	r.JoinRoom(3, 2)

	h.Handle(reader, models.InboundMessage{RoomID: 3, Type: models.MessageTypeRead})

	assert.Equal(t, 0, reader.sentCount())
	require.Equal(t, 1, peer.sentCount())

	var out models.OutboundMessage
	peer.mu.Lock()
	payload := peer.sent[0]
	peer.mu.Unlock()
	require.NoError(t, json.Unmarshal(payload, &out))
	assert.Equal(t, models.MessageTypeRead, out.Type)
	assert.Equal(t, int64(42), out.LastReadMessageID)
}

func TestReadHandler_NothingUnreadSendsNoReceipt(t *testing.T) {
	r := NewSessionRegistry()
	store := new(MockStore)
	store.On("MarkMessagesAsRead", int64(3), int64(1)).Return(nil, nil)

	h := NewReadHandler(r, NewAccessGuard(store, r), store, NewBroadcaster(r))

	reader := newStubSession(1)
	peer := newStubSession(2)
	r.Register(reader)
	r.Register(peer)
	r.JoinRoom(3, 1)
	r.JoinRoom(3, 2)

	h.Handle(reader, models.InboundMessage{RoomID: 3, Type: models.MessageTypeRead})

	assert.True(t, reader.IsOpen())
	assert.Equal(t, 0, peer.sentCount())
}

func TestReadHandler_StoreFailureClosesConnection(t *testing.T) {
	r := NewSessionRegistry()
	store := new(MockStore)
	store.On("MarkMessagesAsRead", int64(3), int64(1)).Return(nil, errors.New("db down"))

	h := NewReadHandler(r, NewAccessGuard(store, r), store, NewBroadcaster(r))

	reader := newStubSession(1)
	r.Register(reader)
	r.JoinRoom(3, 1)

	h.Handle(reader, models.InboundMessage{RoomID: 3, Type: models.MessageTypeRead})

	assert.False(t, reader.IsOpen())
	code, _ := reader.closedWith()
	assert.Equal(t, CloseServerError, code)
}

func TestLeaveHandler_RemovesParticipantAndToleratesNoOp(t *testing.T) {
	r := NewSessionRegistry()
	h := NewLeaveHandler(r)

	s := newStubSession(1)
	r.Register(s)
	r.JoinRoom(3, 1)

	h.Handle(s, models.InboundMessage{RoomID: 3, Type: models.MessageTypeLeave})
	assert.False(t, r.IsParticipant(3, 1))
	assert.True(t, s.IsOpen())

	// Leaving again is harmless.
	h.Handle(s, models.InboundMessage{RoomID: 3, Type: models.MessageTypeLeave})
	assert.True(t, s.IsOpen())
}
