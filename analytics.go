package main

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Event types for analytics tracking
const (
	EventUserLogin     = "user_login"
	EventUserLogout    = "user_logout"
	EventRoomCreated   = "room_created"
	EventRoomDestroyed = "room_destroyed"
	EventMatchStart    = "match_start"
	EventMatchEnd      = "match_end"
)

// AnalyticsEvent is a single trackable event.
type AnalyticsEvent struct {
	Type      string                 `msgpack:"type"`
	Data      map[string]interface{} `msgpack:"data,omitempty"`
	Timestamp int64                  `msgpack:"ts"` // epoch ms
}

// Analytics appends events to a msgpack journal file with batched
// background writes. A nil path disables persistence but keeps the
// channel draining so callers need no nil checks on the writer side.
type Analytics struct {
	file   *os.File
	events chan AnalyticsEvent
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewAnalytics creates and starts the analytics background writer. An
// empty path runs the writer without a journal.
func NewAnalytics(path string) (*Analytics, error) {
	a := &Analytics{
		events: make(chan AnalyticsEvent, 1024),
		stop:   make(chan struct{}),
	}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		a.file = f
	}
	a.wg.Add(1)
	go a.writer()
	return a, nil
}

// Record enqueues an event for async persistence (non-blocking).
func (a *Analytics) Record(evtType string, data map[string]interface{}) {
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}:
	default:
		// channel full, drop rather than block the game loop
	}
}

// Stop gracefully shuts down the analytics writer.
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
	if a.file != nil {
		a.file.Close()
	}
}

// writer is the background goroutine that batches and appends events.
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, 64)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			// Flush immediately if batch is large
			if len(batch) >= 50 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			// Drain remaining events
			close(a.events)
			for evt := range a.events {
				batch = append(batch, evt)
			}
			if len(batch) > 0 {
				a.flush(batch)
			}
			return
		}
	}
}

// flush appends a batch as consecutive msgpack values.
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.file == nil || len(events) == 0 {
		return
	}
	enc := msgpack.NewEncoder(a.file)
	for _, evt := range events {
		if err := enc.Encode(&evt); err != nil {
			log.Printf("analytics: encode error: %v", err)
			return
		}
	}
}
