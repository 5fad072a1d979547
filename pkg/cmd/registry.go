// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/seedflow/seedflow/pkg/adapters"
	"github.com/seedflow/seedflow/pkg/idempotency"
	"github.com/seedflow/seedflow/pkg/nodes/customernote"
	"github.com/seedflow/seedflow/pkg/nodes/delay"
	"github.com/seedflow/seedflow/pkg/nodes/ordernote"
	"github.com/seedflow/seedflow/pkg/nodes/sendmessage"
	"github.com/seedflow/seedflow/pkg/nodes/split"
	"github.com/seedflow/seedflow/pkg/nodes/trigger"
	"github.com/seedflow/seedflow/pkg/registry"
)

// NewLedger builds the idempotency ledger guarding side-effecting nodes. A
// redis:// URL selects the shared Redis ledger; anything else falls back to
// the in-process ledger.
func NewLedger(ledgerURL string) idempotency.Ledger {
	if strings.HasPrefix(ledgerURL, "redis://") {
		opts, err := redis.ParseURL(ledgerURL)
		if err != nil {
			panic(fmt.Errorf("invalid ledger URL: %w", err))
		}

		return idempotency.NewRedisLedger(redis.NewClient(opts), "seedflow:ledger")
	}

	return idempotency.NewMemoryLedger()
}

func registerNativeNodes(reg *registry.Registry, ledger idempotency.Ledger, logger *slog.Logger) {
	reg.RegisterNode(trigger.NewTriggerNodeFactory())
	reg.RegisterNode(sendmessage.NewSendMessageNodeFactory(adapters.NewMockMessenger(ledger, logger)))
	reg.RegisterNode(ordernote.NewOrderNoteNodeFactory(adapters.NewMockOrderNotes(ledger, logger)))
	reg.RegisterNode(customernote.NewCustomerNoteNodeFactory(adapters.NewMockCustomerNotes(ledger, logger)))
	reg.RegisterNode(delay.NewDelayNodeFactory())
	reg.RegisterNode(split.NewSplitNodeFactory())
}

func NewRegistry(logger *slog.Logger, ledger idempotency.Ledger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	registerNativeNodes(reg, ledger, logger)

	return reg
}
