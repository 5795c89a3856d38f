package projection

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/user01samiul/jx-backend-sub007/internal/domain"
	"github.com/user01samiul/jx-backend-sub007/internal/infra"
)

// Consumer reads wallet events off Kafka and folds them into the Store.
// The outbox poller keys messages by account, so one account's events arrive
// in order within a partition; the store's dedup makes redelivery harmless.
type Consumer struct {
	source *infra.KafkaConsumer
	store  Store
	logger *slog.Logger
}

// NewConsumer creates a mirror consumer.
func NewConsumer(source *infra.KafkaConsumer, store Store, logger *slog.Logger) *Consumer {
	return &Consumer{source: source, store: store, logger: logger}
}

// Run consumes until ctx is cancelled. Malformed messages are logged and
// committed; the mirror never blocks the partition on garbage.
func (c *Consumer) Run(ctx context.Context) error {
	if !c.source.Enabled() {
		c.logger.Info("mirror consumer disabled")
		<-ctx.Done()
		return nil
	}

	for {
		msg, err := c.source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.apply(ctx, msg.Value); err != nil {
			c.logger.Error("mirror apply failed", "error", err, "key", string(msg.Key))
		}

		if err := c.source.Commit(ctx, msg); err != nil {
			c.logger.Error("mirror commit failed", "error", err)
		}
	}
}

func (c *Consumer) apply(ctx context.Context, value []byte) error {
	var draft domain.OutboxDraft
	if err := json.Unmarshal(value, &draft); err != nil {
		return err
	}

	switch draft.AggregateType {
	case domain.AggregateWallet:
		var payload domain.EntryEventPayload
		if err := json.Unmarshal(draft.Payload, &payload); err != nil {
			return err
		}
		return c.store.ApplyEntry(ctx, &payload)

	case domain.AggregateBonus:
		var wallet domain.BonusWallet
		if err := json.Unmarshal(draft.Payload, &wallet); err != nil {
			return err
		}
		return c.store.ApplyBonus(ctx, draft.EventType, &wallet)

	default:
		c.logger.Warn("mirror skipping unknown aggregate", "type", draft.AggregateType)
		return nil
	}
}
