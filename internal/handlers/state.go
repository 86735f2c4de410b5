package handlers

import (
	"context"
	"fmt"

	"github.com/scriptdeck/scriptdeck/internal/protocol"
)

// State answers get-state queries from engine-supplied sources.
type State struct {
	SessionCount   func() int
	ActivePromptID func() string
}

func (h *State) Handles(kind protocol.Kind) bool {
	return kind == protocol.KindGetState
}

func (h *State) Handle(_ context.Context, msg protocol.Message) (protocol.Message, error) {
	q, ok := msg.(protocol.GetState)
	if !ok {
		return nil, fmt.Errorf("unexpected message %s", msg.MessageKind())
	}
	res := protocol.StateResult{
		Type:      protocol.KindStateResult,
		RequestID: q.RequestID,
	}
	if h.SessionCount != nil {
		res.SessionCount = h.SessionCount()
	}
	if h.ActivePromptID != nil {
		res.ActivePromptID = h.ActivePromptID()
	}
	return res, nil
}
