package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scriptdeck/scriptdeck/internal/protocol"
)

// ScriptLog writes script-emitted log lines to the host log. Fire and
// forget: the reply is always nil.
type ScriptLog struct {
	Log *slog.Logger
}

func (h *ScriptLog) Handles(kind protocol.Kind) bool {
	return kind == protocol.KindLog
}

func (h *ScriptLog) Handle(_ context.Context, msg protocol.Message) (protocol.Message, error) {
	m, ok := msg.(protocol.Log)
	if !ok {
		return nil, fmt.Errorf("unexpected message %s", msg.MessageKind())
	}
	switch m.Level {
	case "debug":
		h.Log.Debug(m.Message, "origin", "script")
	case "warn":
		h.Log.Warn(m.Message, "origin", "script")
	case "error":
		h.Log.Error(m.Message, "origin", "script")
	default:
		h.Log.Info(m.Message, "origin", "script")
	}
	return nil, nil
}
