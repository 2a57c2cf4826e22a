package chathub

import (
	"errors"
	"log"
	"sync"
	"time"

	"anonchat/backend/internal/models"
)

const (
	// defaultMaxRetries bounds how many times a failed save is re-attempted
	// before it is reported as permanently failed.
	defaultMaxRetries = 3
	// defaultBaseDelay is the first backoff step; step n waits
	// baseDelay * 2^n.
	defaultBaseDelay = 1000 * time.Millisecond

	saveQueueSize = 256
)

var errQueueFull = errors.New("save queue full")

// saveRequest is one unit moving through the pipeline. Retry counts how
// many re-attempts have already been scheduled for it.
type saveRequest struct {
	RoomID   int64
	SenderID int64
	Content  string
	Retry    int
}

// ChatPipeline persists chat messages off the connection's call path and
// broadcasts them only after the durable unit has committed. The persist
// step is one transaction covering room activation, the sender's return and
// the message insert; the broadcast that follows is built from the original
// content, never re-read from storage, so nothing is announced that failed
// to persist and nothing is announced twice per attempt.
//
// Failed saves are re-attempted with bounded exponential backoff on an
// explicit timer, keeping retry counts and delays observable.
type ChatPipeline struct {
	store       ChatStore
	broadcaster *Broadcaster
	notifier    Notifier

	queue      chan saveRequest
	baseDelay  time.Duration
	maxRetries int

	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewChatPipeline wires the pipeline. A nil notifier falls back to the
// logging no-op.
func NewChatPipeline(store ChatStore, broadcaster *Broadcaster, notifier Notifier) *ChatPipeline {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ChatPipeline{
		store:       store,
		broadcaster: broadcaster,
		notifier:    notifier,
		queue:       make(chan saveRequest, saveQueueSize),
		baseDelay:   defaultBaseDelay,
		maxRetries:  defaultMaxRetries,
		quit:        make(chan struct{}),
	}
}

// Start launches the save worker.
func (p *ChatPipeline) Start() {
	p.wg.Add(1)
	go p.run()
}

// Stop shuts the worker down. Retries still waiting on their backoff timer
// are reported as interrupted instead of silently dropped.
func (p *ChatPipeline) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Enqueue submits a chat message for persistence. It never blocks the
// calling connection: when the queue is saturated the request goes straight
// onto the retry path.
func (p *ChatPipeline) Enqueue(roomID, senderID int64, content string) {
	req := saveRequest{RoomID: roomID, SenderID: senderID, Content: content}
	select {
	case p.queue <- req:
	default:
		p.fail(req, errQueueFull)
	}
}

func (p *ChatPipeline) run() {
	defer p.wg.Done()
	for {
		select {
		case req := <-p.queue:
			p.process(req)
		case <-p.quit:
			return
		}
	}
}

// process runs one save attempt and, on commit, the decoupled broadcast.
func (p *ChatPipeline) process(req saveRequest) {
	messageID, err := p.store.SaveChatMessage(req.RoomID, req.SenderID, req.Content)
	if err != nil {
		p.fail(req, err)
		return
	}
	log.Printf("[CHAT] message persisted roomId=%d senderId=%d messageId=%d attempt=%d",
		req.RoomID, req.SenderID, messageID, req.Retry)

	out := models.OutboundMessage{
		RoomID:    req.RoomID,
		Type:      models.MessageTypeChat,
		SenderID:  req.SenderID,
		Content:   req.Content,
		Timestamp: time.Now(),
	}
	delivered := p.broadcaster.Broadcast(req.RoomID, out)
	if delivered == 0 {
		log.Printf("[WS-DELIVERY] no receiver online: roomId=%d senderId=%d", req.RoomID, req.SenderID)
		p.notifier.NotifyOffline(req.RoomID, req.SenderID, req.Content)
	}
}

// fail handles one failure record. Records past the retry budget are
// reported as permanently failed; the rest wait baseDelay * 2^retry before
// re-entering the queue with an incremented count.
func (p *ChatPipeline) fail(req saveRequest, cause error) {
	if req.Retry >= p.maxRetries {
		log.Printf("[CHAT] message save permanently failed after %d retries: roomId=%d senderId=%d lastError=%v",
			req.Retry, req.RoomID, req.SenderID, cause)
		return
	}

	delay := p.baseDelay << uint(req.Retry)
	log.Printf("[CHAT] retrying message save after %s: roomId=%d senderId=%d attempt=%d error=%v",
		delay, req.RoomID, req.SenderID, req.Retry+1, cause)

	next := req
	next.Retry++
	time.AfterFunc(delay, func() { p.requeue(next) })
}

// requeue re-submits a retry whose backoff wait has elapsed. A retry whose
// wait was cut short by shutdown still ends in a failure record, the same
// report the exhausted-budget path emits, never a silent drop. The quit
// check comes first because the buffered queue would otherwise accept the
// record after the worker is gone.
func (p *ChatPipeline) requeue(next saveRequest) {
	select {
	case <-p.quit:
	default:
		select {
		case p.queue <- next:
			return
		case <-p.quit:
		}
	}
	log.Printf("[CHAT] message save permanently failed (retry interrupted by shutdown): roomId=%d senderId=%d attempt=%d",
		next.RoomID, next.SenderID, next.Retry)
}

// LogNotifier is the default offline hook: it only logs. Push delivery is
// intentionally out of scope.
type LogNotifier struct{}

// NotifyOffline records that a committed message reached nobody.
func (LogNotifier) NotifyOffline(roomID, senderID int64, _ string) {
	log.Printf("[NOTIFY] offline recipients roomId=%d senderId=%d", roomID, senderID)
}
