// Package router decides, for every decoded message, whether a local
// handler answers it now or the interactive UI layer owns producing the
// eventual response. It also owns the correlation table tracking in-flight
// prompt and request exchanges.
package router

import (
	"errors"
	"sync"

	"github.com/scriptdeck/scriptdeck/internal/protocol"
)

var (
	// ErrDuplicateID means an identifier was reused before its prior
	// exchange resolved. A protocol violation; never silently overwritten.
	ErrDuplicateID = errors.New("identifier already in flight")

	// ErrUnknownID means a resolution arrived for an identifier with no
	// pending entry (unknown, already resolved, or already cancelled).
	ErrUnknownID = errors.New("no pending entry for identifier")
)

// Resolution is the terminal result of one correlated exchange.
// Value is nil when Cancelled.
type Resolution struct {
	Value     protocol.Message
	Cancelled bool
}

type tableKey struct {
	sessionID string
	id        string
}

type entry struct {
	kind protocol.Kind
	role protocol.IDRole
	done chan Resolution // buffered 1; sent to exactly once
}

// Table tracks in-flight exchanges keyed by (session id, identifier).
// Identifiers are unique per session for the lifetime of the exchange; an
// entry's resolution is atomic with its removal, so two completions can
// never race to resolve the same identifier.
type Table struct {
	mu      sync.Mutex
	entries map[tableKey]*entry
}

func NewTable() *Table {
	return &Table{entries: make(map[tableKey]*entry)}
}

// Register adds a pending entry and returns the channel its resolution will
// arrive on. Registering an identifier that is already in flight for the
// same session fails with ErrDuplicateID.
func (t *Table) Register(sessionID, id string, kind protocol.Kind) (<-chan Resolution, error) {
	role, _ := protocol.RoleOf(kind)
	key := tableKey{sessionID, id}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[key]; exists {
		return nil, ErrDuplicateID
	}
	e := &entry{kind: kind, role: role, done: make(chan Resolution, 1)}
	t.entries[key] = e
	return e.done, nil
}

// Resolve completes a pending entry with a value and removes it.
func (t *Table) Resolve(sessionID, id string, value protocol.Message) error {
	return t.complete(sessionID, id, Resolution{Value: value})
}

// Cancel completes a pending entry as cancelled and removes it.
func (t *Table) Cancel(sessionID, id string) error {
	return t.complete(sessionID, id, Resolution{Cancelled: true})
}

func (t *Table) complete(sessionID, id string, res Resolution) error {
	key := tableKey{sessionID, id}

	t.mu.Lock()
	e, ok := t.entries[key]
	if ok {
		delete(t.entries, key)
	}
	t.mu.Unlock()

	if !ok {
		return ErrUnknownID
	}
	e.done <- res
	return nil
}

// CancelSession cancels every pending entry owned by a session and returns
// how many were cancelled. Used on session termination; idempotent.
func (t *Table) CancelSession(sessionID string) int {
	t.mu.Lock()
	var cancelled []*entry
	for key, e := range t.entries {
		if key.sessionID == sessionID {
			cancelled = append(cancelled, e)
			delete(t.entries, key)
		}
	}
	t.mu.Unlock()

	for _, e := range cancelled {
		e.done <- Resolution{Cancelled: true}
	}
	return len(cancelled)
}

// Pending returns the number of in-flight entries for a session.
func (t *Table) Pending(sessionID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for key := range t.entries {
		if key.sessionID == sessionID {
			n++
		}
	}
	return n
}
