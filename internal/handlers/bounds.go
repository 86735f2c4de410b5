package handlers

import (
	"context"
	"fmt"

	"github.com/scriptdeck/scriptdeck/internal/protocol"
)

// BoundsProvider retrieves the host window's bounds. OS-specific retrieval
// lives behind this interface; the router and handler never touch OS APIs.
type BoundsProvider interface {
	Bounds() (protocol.Rect, error)
}

// StaticBounds is a BoundsProvider returning fixed bounds. Used headless and
// in tests.
type StaticBounds protocol.Rect

func (b StaticBounds) Bounds() (protocol.Rect, error) {
	return protocol.Rect(b), nil
}

// WindowBounds answers window-bounds queries from a BoundsProvider.
type WindowBounds struct {
	Provider BoundsProvider
}

func (h *WindowBounds) Handles(kind protocol.Kind) bool {
	return kind == protocol.KindWindowBounds
}

func (h *WindowBounds) Handle(_ context.Context, msg protocol.Message) (protocol.Message, error) {
	q, ok := msg.(protocol.WindowBoundsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected message %s", msg.MessageKind())
	}
	rect, err := h.Provider.Bounds()
	if err != nil {
		return nil, fmt.Errorf("retrieving window bounds: %w", err)
	}
	return protocol.WindowBoundsResult{
		Type:      protocol.KindWindowBoundsResult,
		RequestID: q.RequestID,
		Bounds:    rect,
	}, nil
}
