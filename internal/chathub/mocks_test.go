package chathub

import (
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of the ChatStore collaborator.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) IsMember(roomID, userID int64) (bool, error) {
	args := m.Called(roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) SaveChatMessage(roomID, senderID int64, content string) (int64, error) {
	args := m.Called(roomID, senderID, content)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) MarkMessagesAsRead(roomID, userID int64) (*int64, error) {
	args := m.Called(roomID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

// recordingNotifier captures offline notifications.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []int64 // roomIDs
}

func (n *recordingNotifier) NotifyOffline(roomID, senderID int64, content string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, roomID)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}
