package handlers

import (
	"context"
	"fmt"

	"github.com/scriptdeck/scriptdeck/internal/protocol"
)

// Vault answers secret-get queries from the host's decrypted secret store.
// Unknown keys answer with a nil value rather than an error, so scripts can
// probe for optional secrets.
type Vault struct {
	Secrets map[string]string
}

func (h *Vault) Handles(kind protocol.Kind) bool {
	return kind == protocol.KindSecretGet
}

func (h *Vault) Handle(_ context.Context, msg protocol.Message) (protocol.Message, error) {
	q, ok := msg.(protocol.SecretGet)
	if !ok {
		return nil, fmt.Errorf("unexpected message %s", msg.MessageKind())
	}
	res := protocol.SecretResult{
		Type:      protocol.KindSecretResult,
		RequestID: q.RequestID,
		Key:       q.Key,
	}
	if value, found := h.Secrets[q.Key]; found {
		res.Value = &value
	}
	return res, nil
}
