package chathub

import (
	"log"
	"sync"
	"time"
)

const (
	heartbeatInterval = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

// Heartbeat periodically pings every open session and reaps the
// unresponsive ones. A session whose ping cannot be written is dropped
// immediately; a session with no inbound activity for longer than the idle
// cutoff is dropped regardless of the ping result.
type Heartbeat struct {
	sessions  *SessionRegistry
	interval  time.Duration
	idleAfter time.Duration

	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewHeartbeat creates a sweep over the registry with the default cadence.
func NewHeartbeat(sessions *SessionRegistry) *Heartbeat {
	return &Heartbeat{
		sessions:  sessions,
		interval:  heartbeatInterval,
		idleAfter: idleTimeout,
		quit:      make(chan struct{}),
	}
}

// Start launches the periodic sweep.
func (hb *Heartbeat) Start() {
	hb.wg.Add(1)
	go func() {
		defer hb.wg.Done()
		ticker := time.NewTicker(hb.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				hb.sweep(time.Now())
			case <-hb.quit:
				return
			}
		}
	}()
}

// Stop cancels the sweep and waits for it to finish.
func (hb *Heartbeat) Stop() {
	hb.once.Do(func() { close(hb.quit) })
	hb.wg.Wait()
}

// sweep iterates a snapshot of all sessions once.
func (hb *Heartbeat) sweep(now time.Time) {
	for userID, s := range hb.sessions.Snapshot() {
		if !s.IsOpen() {
			continue
		}
		if err := s.Ping(); err != nil {
			log.Printf("[WS-PING] send failed userId=%d reason=%v", userID, err)
			hb.sessions.ForceDisconnect(userID, CloseNotReliable, "ping failed")
			continue
		}
		if last := hb.sessions.LastActive(userID); last.Add(hb.idleAfter).Before(now) {
			log.Printf("[WS-PING] idle session userId=%d lastActiveAt=%s", userID, last)
			hb.sessions.ForceDisconnect(userID, CloseNotReliable, "session idle")
		}
	}
}
