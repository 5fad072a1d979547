// Package sendmessage provides the message delivery node executor.
package sendmessage

import (
	"context"
	"fmt"

	"github.com/seedflow/seedflow/pkg/adapters"
	"github.com/seedflow/seedflow/pkg/conditions"
	"github.com/seedflow/seedflow/pkg/idempotency"
	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
	"github.com/seedflow/seedflow/pkg/template"
)

// SendMessageNode renders the recipient and body against the live context and
// delivers through the messenger adapter. The adapter dedupes by the node's
// idempotency key, so re-running under retry is safe.
type SendMessageNode struct {
	id        string
	to        string
	message   string
	template  string
	messenger adapters.Messenger
}

func NewSendMessageNode(id string, config map[string]any, messenger adapters.Messenger) (*SendMessageNode, error) {
	to, _ := config["to"].(string)
	if to == "" {
		return nil, fmt.Errorf("%w: send_message requires 'to'", protocol.ErrInvalidConfig)
	}

	message, _ := config["message"].(string)
	templateName, _ := config["template"].(string)

	if message == "" && templateName == "" {
		return nil, fmt.Errorf("%w: send_message requires 'message' or 'template'", protocol.ErrInvalidConfig)
	}

	return &SendMessageNode{
		id:        id,
		to:        to,
		message:   message,
		template:  templateName,
		messenger: messenger,
	}, nil
}

func (n *SendMessageNode) ID() string {
	return n.id
}

func (n *SendMessageNode) Type() models.NodeType {
	return models.NodeTypeSendMessage
}

func (n *SendMessageNode) Execute(ctx context.Context, scope models.ExecutionContext) (*models.NodeOutcome, error) {
	to, err := resolveRecipient(n.to, scope)
	if err != nil {
		return nil, err
	}

	message, err := template.RenderWithContext(n.message, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to render message body: %w", err)
	}

	result, err := n.messenger.SendMessage(ctx, adapters.SendMessageRequest{
		To:             to,
		Message:        message,
		Template:       n.template,
		IdempotencyKey: idempotency.Key(scope.ExecutionID, n.id),
	})
	if err != nil {
		return nil, fmt.Errorf("message delivery failed: %w", err)
	}

	return &models.NodeOutcome{
		Result: map[string]any{
			"message_id": result.MessageID,
			"status":     result.Status,
			"to":         to,
		},
	}, nil
}

// resolveRecipient treats the configured recipient as either a template, a
// context field path, or a literal address, in that order.
func resolveRecipient(to string, scope models.ExecutionContext) (string, error) {
	rendered, err := template.RenderWithContext(to, scope)
	if err != nil {
		return "", fmt.Errorf("failed to render recipient: %w", err)
	}

	if value, found := conditions.ResolveField(scope.Data, rendered); found {
		if s, ok := value.(string); ok && s != "" {
			return s, nil
		}
	}

	return rendered, nil
}
