package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventEntryPosted     EventType = "wallet.entry.posted"
	EventEntryCancelled  EventType = "wallet.entry.cancelled"
	EventBonusGranted    EventType = "wallet.bonus.granted"
	EventBonusReleased   EventType = "wallet.bonus.released"
	EventBonusForfeited  EventType = "wallet.bonus.forfeited"
	EventTransferApplied EventType = "wallet.transfer.applied"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateWallet AggregateType = "wallet"
	AggregateBonus  AggregateType = "bonus"
)

// OutboxDraft is the payload written to the event_outbox table. The mirror
// consumer replays these onto the downstream read model.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// EntryEventPayload is what the mirror consumer needs to update the balance
// and history projections without reading the relational store.
type EntryEventPayload struct {
	Entry    *LedgerEntry `json:"entry"`
	Balance  int64        `json:"balance"`
	Currency string       `json:"currency"`
}

// NewEntryPostedEvent creates the standard wallet event for a ledger entry.
func NewEntryPostedEvent(entry *LedgerEntry, balance int64, currency string) OutboxDraft {
	payload, _ := json.Marshal(EntryEventPayload{Entry: entry, Balance: balance, Currency: currency})
	evtType := EventEntryPosted
	if entry.Status == EntryCancelled {
		evtType = EventEntryCancelled
	}
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateWallet,
		AggregateID:   entry.AccountID.String(),
		EventType:     evtType,
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewBonusEvent creates a bonus lifecycle event.
func NewBonusEvent(evtType EventType, wallet *BonusWallet) OutboxDraft {
	payload, _ := json.Marshal(wallet)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateBonus,
		AggregateID:   wallet.AccountID.String(),
		EventType:     evtType,
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
