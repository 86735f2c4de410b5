package handlers

import (
	"context"
	"fmt"

	"github.com/scriptdeck/scriptdeck/internal/protocol"
)

// AIModels answers ai-models queries from the host's configured catalog.
type AIModels struct {
	Models []protocol.AIModel
}

func (h *AIModels) Handles(kind protocol.Kind) bool {
	return kind == protocol.KindAIModels
}

func (h *AIModels) Handle(_ context.Context, msg protocol.Message) (protocol.Message, error) {
	q, ok := msg.(protocol.AIModelsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected message %s", msg.MessageKind())
	}
	models := h.Models
	if models == nil {
		models = []protocol.AIModel{}
	}
	return protocol.AIModelsResult{
		Type:      protocol.KindAIModelsResult,
		RequestID: q.RequestID,
		Models:    models,
	}, nil
}
