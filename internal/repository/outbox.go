package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

type outboxRepo struct{}

// NewOutboxRepository returns a pgx-backed OutboxRepository.
func NewOutboxRepository() OutboxRepository {
	return &outboxRepo{}
}

func (r *outboxRepo) Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error {
	payload := draft.Payload
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}

	_, err := db.Exec(ctx, `
		INSERT INTO event_outbox (event_id, aggregate_type, aggregate_id, event_type, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		draft.EventID,
		string(draft.AggregateType),
		draft.AggregateID,
		string(draft.EventType),
		payload,
		draft.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepo) CountByAggregate(ctx context.Context, db DBTX, aggregateType domain.AggregateType, aggregateID string) (int64, error) {
	var count int64
	err := db.QueryRow(ctx, `
		SELECT count(*) FROM event_outbox
		WHERE aggregate_type = $1 AND aggregate_id = $2`,
		string(aggregateType), aggregateID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count outbox events: %w", err)
	}
	return count, nil
}
