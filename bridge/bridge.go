// Package bridge models the request/reply channel between the page-embedded
// extractor and the UI surface. The two sides share no memory: the UI sends a
// single typed request and the attached page context must reply exactly once,
// with either a snapshot or an error.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/codemuse/shopping-comparison/logger"
	"github.com/codemuse/shopping-comparison/models"
)

// ActionScrapeProduct asks the page context for a product snapshot.
const ActionScrapeProduct = "scrapeProduct"

// DefaultTimeout bounds how long Send waits for a reply. A handler that never
// replies is a defined failure mode, not a hang.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNoReceiver means no page context is attached to receive the message.
	ErrNoReceiver = errors.New("bridge: no receiving context")
	// ErrNoReply means the handler held the channel open past the deadline.
	ErrNoReply = errors.New("bridge: handler did not reply")
)

// Request is the single message shape the UI surface sends.
type Request struct {
	Action string `json:"action"`
}

// Response is the single reply shape the page context produces.
type Response struct {
	Success bool             `json:"success"`
	Data    *models.Snapshot `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Handler runs in the page context. It must call reply exactly once;
// additional calls are dropped.
type Handler func(req Request, reply func(Response))

// Bridge is a single-shot request/reply channel with at most one attached
// receiving context.
type Bridge struct {
	mu      sync.RWMutex
	handler Handler

	timeout time.Duration
	log     logger.Logger
}

// New builds a bridge. A non-positive timeout falls back to DefaultTimeout.
func New(timeout time.Duration, log logger.Logger) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Bridge{timeout: timeout, log: log}
}

// Attach registers the page context that will serve requests. A later Attach
// replaces the previous context, mirroring a page navigation.
func (b *Bridge) Attach(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
}

// Detach removes the page context. Subsequent sends fail with ErrNoReceiver.
func (b *Bridge) Detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = nil
}

// Send delivers req to the attached context and waits for its one reply.
// Sending with no context attached fails immediately with ErrNoReceiver. A
// handler panic is converted to a failure response, never a crash of the
// sending surface.
func (b *Bridge) Send(ctx context.Context, req Request) (Response, error) {
	b.mu.RLock()
	handler := b.handler
	b.mu.RUnlock()

	if handler == nil {
		return Response{}, ErrNoReceiver
	}

	replies := make(chan Response, 1)
	var once sync.Once
	reply := func(resp Response) {
		once.Do(func() {
			replies <- resp
		})
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				b.log.Warn("bridge handler panicked", logger.String("panic", fmt.Sprint(r)))
				reply(Response{Success: false, Error: fmt.Sprint(r)})
			}
		}()
		handler(req, reply)
	}()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case resp := <-replies:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-timer.C:
		return Response{}, ErrNoReply
	}
}
