package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Info describes one live session for lifecycle management.
type Info struct {
	ID        string
	PID       int
	Path      string
	StartedAt time.Time
}

// Registry owns all live sessions. Script-lifecycle management outside the
// core (orphan cleanup, shutdown) goes through it.
type Registry struct {
	log *slog.Logger
	cfg Config

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(log *slog.Logger, cfg Config) *Registry {
	return &Registry{
		log:      log,
		cfg:      cfg.withDefaults(),
		sessions: make(map[string]*Session),
	}
}

// Spawn launches a script and registers the session under a fresh id.
func (r *Registry) Spawn(spec Spec) (*Session, error) {
	id := uuid.NewString()
	s, err := spawn(r.log, id, spec, r.cfg)
	if err != nil {
		return nil, fmt.Errorf("spawning %s: %w", spec.Path, err)
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s, nil
}

// Get looks up a live session.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Terminate stops a session and removes it from the registry. Idempotent.
func (r *Registry) Terminate(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		s.Terminate()
	}
}

// Remove drops a session that has already terminated on its own.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// TerminateAll stops every live session. Used during host shutdown.
func (r *Registry) TerminateAll() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		s.Terminate()
	}
}

// ListActive returns info about every live session.
func (r *Registry) ListActive() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, Info{
			ID:        s.id,
			PID:       s.PID(),
			Path:      s.path,
			StartedAt: s.startedAt,
		})
	}
	return out
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
