package sendmessage

import (
	"context"

	"github.com/seedflow/seedflow/pkg/adapters"
	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/protocol"
)

type SendMessageNodeFactory struct {
	messenger adapters.Messenger
}

func NewSendMessageNodeFactory(messenger adapters.Messenger) protocol.NodeExecutorFactory {
	return &SendMessageNodeFactory{messenger: messenger}
}

func (f *SendMessageNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.NodeExecutor, error) {
	return NewSendMessageNode(id, config, f.messenger)
}

func (f *SendMessageNodeFactory) Type() models.NodeType {
	return models.NodeTypeSendMessage
}

func (f *SendMessageNodeFactory) Name() string {
	return "Send Message"
}

func (f *SendMessageNodeFactory) Description() string {
	return "Delivers a message to a customer. The recipient and body support templating against the trigger context."
}

func (f *SendMessageNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient address, a context field path, or a template.",
				"examples":    []string{"customer_email", "{{.context.customer_email}}"},
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Message body. Supports templating.",
				"examples":    []string{"Thanks for your order, {{.context.customer_name}}!"},
			},
			"template": map[string]any{
				"type":        "string",
				"description": "Name of a provider-side message template.",
			},
		},
		"required": []string{"to"},
	}
}
