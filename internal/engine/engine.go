// Package engine wires script sessions to the message router: it consumes
// each session's event stream in order, routes decoded messages, writes
// replies back, and tears down correlation state when a session ends.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/scriptdeck/scriptdeck/internal/protocol"
	"github.com/scriptdeck/scriptdeck/internal/router"
	"github.com/scriptdeck/scriptdeck/internal/session"
)

// Engine drives the protocol for every live session. One dispatch goroutine
// per session preserves the script's emission order end to end; across
// sessions no ordering is implied.
type Engine struct {
	log      *slog.Logger
	router   *router.Router
	registry *session.Registry

	wg sync.WaitGroup

	mu           sync.Mutex
	activePrompt string
}

func New(log *slog.Logger, rt *router.Router, reg *session.Registry) *Engine {
	return &Engine{log: log, router: rt, registry: reg}
}

// Launch spawns a script session and starts dispatching its messages.
func (e *Engine) Launch(ctx context.Context, spec session.Spec) (*session.Session, error) {
	s, err := e.registry.Spawn(spec)
	if err != nil {
		return nil, err
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.dispatch(ctx, s)
	}()
	return s, nil
}

// ActivePromptID reports the prompt currently awaiting the rendering
// surface, if any.
func (e *Engine) ActivePromptID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activePrompt
}

// Shutdown terminates every session and waits for dispatch to drain.
func (e *Engine) Shutdown() {
	e.registry.TerminateAll()
	e.wg.Wait()
}

func (e *Engine) dispatch(ctx context.Context, s *session.Session) {
	for ev := range s.Events() {
		if ev.Err != nil {
			e.log.Error("session error", "session", s.ID(), "error", ev.Err)
			break
		}
		out := ev.Outcome
		if out.Status != protocol.StatusDecoded {
			e.router.LogIssue(s.ID(), out.Issue)
			continue
		}

		// Session lifecycle messages are the engine's own concern; the
		// router never sees them.
		switch m := out.Msg.(type) {
		case protocol.Exit:
			e.log.Info("script requested exit", "session", s.ID(), "code", m.Code)
			s.Terminate()
			continue
		case protocol.RunScript:
			if _, err := e.Launch(ctx, session.Spec{Path: m.Path, Args: m.Args}); err != nil {
				e.log.Warn("launching requested script", "session", s.ID(), "path", m.Path, "error", err)
			}
			continue
		}

		res, err := e.router.Route(ctx, s.ID(), out.Msg)
		if err != nil {
			continue
		}

		switch res.Kind {
		case router.RoutedLocal:
			if res.Reply != nil {
				if err := s.Send(res.Reply); err != nil {
					e.log.Warn("writing local reply", "session", s.ID(), "error", err)
				}
			}
		case router.RoutedUI:
			id, role, ok := protocol.CorrelationID(out.Msg)
			if ok && role == protocol.RolePrompt {
				e.setActivePrompt(id)
			}
			go e.awaitResolution(s, out.Msg, res.Pending)
		case router.RoutedNone:
			// Fire-and-forget.
		}
	}

	// Session ended (exit, crash, desync, or explicit stop): every pending
	// exchange it owns resolves as cancelled, exactly once.
	s.Terminate()
	e.router.CancelSession(s.ID())
	e.registry.Remove(s.ID())
}

// awaitResolution is the continuation of one UI-forwarded exchange: it
// blocks until the UI (or a cancellation) resolves the entry, then writes
// the terminal result back to the script.
func (e *Engine) awaitResolution(s *session.Session, msg protocol.Message, pending <-chan router.Resolution) {
	res := <-pending

	id, role, ok := protocol.CorrelationID(msg)
	if ok && role == protocol.RolePrompt {
		e.clearActivePrompt(id)
	}

	if res.Cancelled {
		// The script still gets a terminal answer rather than an
		// indefinite hang; the write fails harmlessly on a dead session.
		if !ok {
			return
		}
		var reply protocol.Message
		switch role {
		case protocol.RoleRequest:
			reply = protocol.RequestError{Type: protocol.KindRequestError, RequestID: id, Message: "cancelled"}
		case protocol.RolePrompt:
			reply = protocol.PromptResponse{Type: protocol.KindPromptResponse, ID: id}
		default:
			return
		}
		_ = s.Send(reply)
		return
	}

	if res.Value == nil {
		return
	}
	if err := s.Send(res.Value); err != nil {
		e.log.Warn("writing UI resolution", "session", s.ID(), "error", err)
	}
}

func (e *Engine) setActivePrompt(id string) {
	e.mu.Lock()
	e.activePrompt = id
	e.mu.Unlock()
}

func (e *Engine) clearActivePrompt(id string) {
	e.mu.Lock()
	if e.activePrompt == id {
		e.activePrompt = ""
	}
	e.mu.Unlock()
}
