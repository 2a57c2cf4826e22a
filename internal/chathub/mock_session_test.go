package chathub

import (
	"errors"
	"fmt"
	"sync"
)

var errSessionGone = errors.New("session gone")

// stubSession is an in-memory Session for tests. It records sent frames
// and the first close code/reason it receives.
type stubSession struct {
	id     string
	userID int64

	mu          sync.Mutex
	open        bool
	sent        [][]byte
	sendErr     error
	pingErr     error
	closeCode   int
	closeReason string
	closeCalls  int
}

func newStubSession(userID int64) *stubSession {
	return &stubSession{
		id:     fmt.Sprintf("stub-%d", userID),
		userID: userID,
		open:   true,
	}
}

func (s *stubSession) ID() string    { return s.id }
func (s *stubSession) UserID() int64 { return s.userID }

func (s *stubSession) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	if !s.open {
		return errSessionGone
	}
	s.sent = append(s.sent, payload)
	return nil
}

func (s *stubSession) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pingErr != nil {
		return s.pingErr
	}
	if !s.open {
		return errSessionGone
	}
	return nil
}

func (s *stubSession) Close(code int, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	if s.open {
		s.open = false
		s.closeCode = code
		s.closeReason = reason
	}
	return nil
}

func (s *stubSession) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *stubSession) markClosed() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

func (s *stubSession) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *stubSession) closedWith() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCode, s.closeReason
}
