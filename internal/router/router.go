package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scriptdeck/scriptdeck/internal/protocol"
)

// LocalHandler resolves certain message kinds on the fast path, without
// involving the interactive UI. Handle must be quick (a filesystem or query
// operation at most); it runs on the session's dispatch goroutine.
type LocalHandler interface {
	Handles(kind protocol.Kind) bool
	Handle(ctx context.Context, msg protocol.Message) (protocol.Message, error)
}

// Forward is one message handed off to the UI layer. The UI resolves it by
// calling back with the same session id and correlation identifier; it never
// sees process handles or raw wire lines.
type Forward struct {
	SessionID string
	Msg       protocol.Message
}

// UIForwarder receives messages the router hands off to the interactive
// layer: prompt opens awaiting user input, prompt updates, and control
// messages with visible effects.
type UIForwarder interface {
	Forward(f Forward)
}

// RouteKind classifies how a message was dispatched.
type RouteKind int

const (
	// RoutedLocal means a local handler produced the reply synchronously.
	RoutedLocal RouteKind = iota

	// RoutedUI means the UI layer now owns producing the eventual response;
	// the outcome carries the pending resolution channel.
	RoutedUI

	// RoutedNone means no response is expected (control messages, prompt
	// updates, and inbound responses resolving an existing entry).
	RoutedNone
)

// RouteOutcome is the result of routing one message.
type RouteOutcome struct {
	Kind    RouteKind
	Reply   protocol.Message  // set for RoutedLocal when a reply exists
	Pending <-chan Resolution // set for RoutedUI
}

// Router owns the correlation table and the ordered local-handler chain.
// When more than one handler claims a kind, the first registered wins.
type Router struct {
	log      *slog.Logger
	table    *Table
	handlers []LocalHandler
	ui       UIForwarder
	timeout  time.Duration
}

// Option configures a Router.
type Option func(*Router)

// WithRequestTimeout cancels UI-forwarded exchanges that stay unanswered for
// d, independently of session death. Zero disables the timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(r *Router) { r.timeout = d }
}

func New(log *slog.Logger, ui UIForwarder, opts ...Option) *Router {
	r := &Router{
		log:   log,
		table: NewTable(),
		ui:    ui,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends a local handler to the chain. Registration order is claim
// precedence.
func (r *Router) Register(h LocalHandler) {
	r.handlers = append(r.handlers, h)
}

// Route dispatches one decoded message from a session.
//
// Messages opening a correlated exchange register their entry before
// dispatch; the entry resolves exactly once, from the local handler's reply,
// the UI's eventual value, or session-termination cancellation. Inbound
// response kinds resolve the matching pending entry instead.
func (r *Router) Route(ctx context.Context, sessionID string, msg protocol.Message) (RouteOutcome, error) {
	kind := msg.MessageKind()
	id, role, hasID := protocol.CorrelationID(msg)

	var pending <-chan Resolution
	if protocol.Initiates(kind) {
		ch, err := r.table.Register(sessionID, id, kind)
		if err != nil {
			// Duplicate identifier reuse is a protocol violation, not a
			// droppable line; reject loudly.
			r.log.Error("correlation identifier reused before resolution",
				"session", sessionID, "kind", kind, "id", id)
			return RouteOutcome{Kind: RoutedNone}, fmt.Errorf("routing %s: %w", kind, err)
		}
		pending = ch
	}

	if h := r.claimant(kind); h != nil {
		reply, err := h.Handle(ctx, msg)
		if err != nil {
			r.log.Warn("local handler failed", "session", sessionID, "kind", kind, "error", err)
			if role == protocol.RoleRequest {
				reply = protocol.RequestError{
					Type:      protocol.KindRequestError,
					RequestID: id,
					Message:   err.Error(),
				}
			} else {
				reply = nil
			}
		}
		if pending != nil {
			// The handler's reply is the exchange's resolution; the entry
			// must not outlive the fast path.
			if rerr := r.table.Resolve(sessionID, id, reply); rerr != nil {
				r.log.Error("resolving fast-path entry", "session", sessionID, "id", id, "error", rerr)
			}
		}
		return RouteOutcome{Kind: RoutedLocal, Reply: reply}, nil
	}

	if pending != nil {
		r.ui.Forward(Forward{SessionID: sessionID, Msg: msg})
		if r.timeout > 0 {
			r.armTimeout(sessionID, id, kind)
		}
		return RouteOutcome{Kind: RoutedUI, Pending: pending}, nil
	}

	// Inbound response kinds resolve the entry their identifier names.
	if role == protocol.RoleRequest && hasID {
		if err := r.table.Resolve(sessionID, id, msg); err != nil {
			r.log.Error("response names no pending request",
				"session", sessionID, "kind", kind, "request_id", id)
		}
		return RouteOutcome{Kind: RoutedNone}, nil
	}

	// Prompt updates, clipboard operations, and window controls still reach
	// the UI; they just expect no response.
	r.ui.Forward(Forward{SessionID: sessionID, Msg: msg})
	return RouteOutcome{Kind: RoutedNone}, nil
}

func (r *Router) claimant(kind protocol.Kind) LocalHandler {
	for _, h := range r.handlers {
		if h.Handles(kind) {
			return h
		}
	}
	return nil
}

func (r *Router) armTimeout(sessionID, id string, kind protocol.Kind) {
	time.AfterFunc(r.timeout, func() {
		if err := r.table.Cancel(sessionID, id); err == nil {
			r.log.Warn("exchange timed out awaiting UI",
				"session", sessionID, "kind", kind, "id", id, "timeout", r.timeout)
		}
	})
}

// ResolveFromUI completes a UI-forwarded exchange with the user's value.
// Resolving an unknown or already-resolved identifier is a logic error and
// is logged loudly.
func (r *Router) ResolveFromUI(sessionID, id string, value protocol.Message) error {
	if err := r.table.Resolve(sessionID, id, value); err != nil {
		r.log.Error("UI resolution names no pending entry",
			"session", sessionID, "id", id)
		return err
	}
	return nil
}

// CancelFromUI cancels a single UI-forwarded exchange (e.g. the user
// dismissed the prompt).
func (r *Router) CancelFromUI(sessionID, id string) error {
	if err := r.table.Cancel(sessionID, id); err != nil {
		r.log.Error("UI cancellation names no pending entry",
			"session", sessionID, "id", id)
		return err
	}
	return nil
}

// CancelSession cancels every pending exchange a session owns. Called on
// session termination; idempotent.
func (r *Router) CancelSession(sessionID string) int {
	n := r.table.CancelSession(sessionID)
	if n > 0 {
		r.log.Info("cancelled pending exchanges", "session", sessionID, "count", n)
	}
	return n
}

// Pending reports the number of in-flight exchanges for a session.
func (r *Router) Pending(sessionID string) int {
	return r.table.Pending(sessionID)
}

// LogIssue records a non-decoded parse outcome: correlation id, outcome
// status, optional kind, optional error, bounded preview, and true byte
// length. Never the full raw line.
func (r *Router) LogIssue(sessionID string, issue *protocol.Issue) {
	attrs := []any{
		"session", sessionID,
		"correlation_id", issue.CorrelationID,
		"status", issue.Status.String(),
		"byte_len", issue.ByteLen,
		"preview", issue.Preview,
	}
	if issue.Kind != "" {
		attrs = append(attrs, "kind", issue.Kind)
	}
	if issue.Err != "" {
		attrs = append(attrs, "error", issue.Err)
	}
	switch issue.Status {
	case protocol.StatusInvalidPayload, protocol.StatusMalformed, protocol.StatusTooLong:
		r.log.Warn("discarded protocol line", attrs...)
	default:
		r.log.Info("discarded protocol line", attrs...)
	}
}
