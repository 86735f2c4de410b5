package session

import "github.com/scriptdeck/scriptdeck/internal/protocol"

// healthTracker watches for protocol desynchronization: a run of consecutive
// lines that fail before the structural stage. Any successfully framed line
// (even one with an invalid payload) resets the run, since framing is intact.
// Only the session's reader goroutine touches it.
type healthTracker struct {
	threshold int
	run       int
}

// observe records one outcome and reports whether the session is still
// healthy.
func (h *healthTracker) observe(s protocol.Status) bool {
	switch s {
	case protocol.StatusMalformed, protocol.StatusTooLong:
		h.run++
	default:
		h.run = 0
	}
	return h.run < h.threshold
}
