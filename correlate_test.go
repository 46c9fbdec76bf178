package main

import (
	"testing"
	"time"
)

func TestRequestTrackerResolve(t *testing.T) {
	tr := NewRequestTracker(time.Second)
	tr.Register("req-1")

	go tr.Resolve(respOK("req-1", nil))

	resp, ok := tr.Await("req-1")
	if !ok {
		t.Fatal("expected response")
	}
	if !resp.Success {
		t.Error("expected success response")
	}
}

func TestRequestTrackerTimeout(t *testing.T) {
	tr := NewRequestTracker(20 * time.Millisecond)
	tr.Register("req-1")

	if _, ok := tr.Await("req-1"); ok {
		t.Fatal("expected timeout")
	}
	// The pending slot was dropped: a late response is discarded.
	if tr.Resolve(respOK("req-1", nil)) {
		t.Error("late response should be discarded")
	}
}

func TestRequestTrackerUnknownRequest(t *testing.T) {
	tr := NewRequestTracker(time.Second)
	if tr.Resolve(respFail("nope", "x")) {
		t.Error("response without a pending request should be discarded")
	}
	if _, ok := tr.Await("nope"); ok {
		t.Error("awaiting an unregistered request should fail")
	}
}
