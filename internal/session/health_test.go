package session

import (
	"testing"

	"github.com/scriptdeck/scriptdeck/internal/protocol"
)

func TestHealthTrackerThreshold(t *testing.T) {
	h := &healthTracker{threshold: 3}
	if !h.observe(protocol.StatusMalformed) {
		t.Fatal("unhealthy after one malformed line")
	}
	if !h.observe(protocol.StatusTooLong) {
		t.Fatal("unhealthy after two")
	}
	if h.observe(protocol.StatusMalformed) {
		return
	}
	t.Fatal("still healthy at the threshold")
}

// Structurally intact lines reset the run even when their payload is bad:
// framing is the thing being tracked.
func TestHealthTrackerResets(t *testing.T) {
	h := &healthTracker{threshold: 2}
	h.observe(protocol.StatusMalformed)

	for _, s := range []protocol.Status{
		protocol.StatusDecoded,
		protocol.StatusInvalidPayload,
		protocol.StatusUnrecognizedKind,
		protocol.StatusMissingDiscriminant,
	} {
		if !h.observe(s) {
			t.Fatalf("status %v marked session unhealthy", s)
		}
		if !h.observe(protocol.StatusMalformed) {
			t.Fatalf("run not reset by %v", s)
		}
	}
}
