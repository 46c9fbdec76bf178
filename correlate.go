package main

import (
	"sync"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

// RequestTracker correlates requestId-bearing messages with their single
// response. Pending requests that see no response within the timeout are
// dropped; a late response to a dropped request is discarded.
type RequestTracker struct {
	mu      sync.Mutex
	timeout time.Duration
	pending map[string]chan ResponseMsg
}

// NewRequestTracker builds a tracker. A zero timeout uses the default.
func NewRequestTracker(timeout time.Duration) *RequestTracker {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &RequestTracker{
		timeout: timeout,
		pending: make(map[string]chan ResponseMsg),
	}
}

// Register opens a pending slot for a request id. Registering an id twice
// replaces the first slot.
func (t *RequestTracker) Register(requestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[requestID] = make(chan ResponseMsg, 1)
}

// Resolve delivers a response to its waiter. Responses without a pending
// request report false and are discarded.
func (t *RequestTracker) Resolve(resp ResponseMsg) bool {
	t.mu.Lock()
	ch, ok := t.pending[resp.RequestID]
	if ok {
		delete(t.pending, resp.RequestID)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	ch <- resp
	return true
}

// Await blocks for the response to a registered request, dropping the
// pending slot on timeout.
func (t *RequestTracker) Await(requestID string) (ResponseMsg, bool) {
	t.mu.Lock()
	ch, ok := t.pending[requestID]
	t.mu.Unlock()
	if !ok {
		return ResponseMsg{}, false
	}
	select {
	case resp := <-ch:
		return resp, true
	case <-time.After(t.timeout):
		t.mu.Lock()
		delete(t.pending, requestID)
		t.mu.Unlock()
		return ResponseMsg{}, false
	}
}
