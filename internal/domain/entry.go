package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntryKind enumerates all ledger entry kinds.
type EntryKind string

const (
	KindStake        EntryKind = "stake"
	KindPayout       EntryKind = "payout"
	KindAdjustment   EntryKind = "adjustment"
	KindTransferOut  EntryKind = "transfer_out"
	KindTransferIn   EntryKind = "transfer_in"
	KindBonusGrant   EntryKind = "bonus_grant"
	KindBonusRelease EntryKind = "bonus_release"
	KindBonusForfeit EntryKind = "bonus_forfeit"

	// Reversal kinds
	KindCancelStake      EntryKind = "cancel_stake"
	KindCancelPayout     EntryKind = "cancel_payout"
	KindCancelAdjustment EntryKind = "cancel_adjustment"
)

// ReversalKindMap maps original entry kinds to their reversal kind.
// Transfer legs and bonus movements are not individually cancellable.
var ReversalKindMap = map[EntryKind]EntryKind{
	KindStake:      KindCancelStake,
	KindPayout:     KindCancelPayout,
	KindAdjustment: KindCancelAdjustment,
}

// EntryStatus is the lifecycle state of a ledger entry.
//
// A cancellation flips the original entry to cancelled and writes the
// reversal entry already in cancelled state, so a cancelled pair nets out of
// the sum over completed entries and conservation holds at all times.
type EntryStatus string

const (
	EntryCompleted EntryStatus = "completed"
	EntryCancelled EntryStatus = "cancelled"
)

// Reference suffixes for derived external references.
const (
	CancelRefSuffix      = ":cancel"
	TransferOutRefSuffix = ":out"
	TransferInRefSuffix  = ":in"
)

// CancelReference derives the idempotency reference of a reversal from the
// original's external reference.
func CancelReference(originalRef string) string {
	return originalRef + CancelRefSuffix
}

// IsDerivedReference reports whether ref is a derived reference (reversal or
// transfer leg) rather than a provider-supplied transaction id.
func IsDerivedReference(ref string) bool {
	return strings.HasSuffix(ref, CancelRefSuffix) ||
		strings.HasSuffix(ref, TransferOutRefSuffix) ||
		strings.HasSuffix(ref, TransferInRefSuffix)
}

// LedgerEntry is an immutable ledger_entries row. Amount is signed;
// BalanceBefore/BalanceAfter snapshot the balance the entry applied to
// (the account's main balance, or the category balance when Category is set).
type LedgerEntry struct {
	ID                uuid.UUID       `json:"id"`
	AccountID         uuid.UUID       `json:"account_id"`
	Kind              EntryKind       `json:"kind"`
	Amount            int64           `json:"amount"`
	BalanceBefore     int64           `json:"balance_before"`
	BalanceAfter      int64           `json:"balance_after"`
	ExternalReference *string         `json:"external_reference,omitempty"`
	Status            EntryStatus     `json:"status"`
	RoundID           *string         `json:"round_id,omitempty"`
	Category          *string         `json:"category,omitempty"`
	TargetEntryID     *uuid.UUID      `json:"target_entry_id,omitempty"`
	Metadata          json.RawMessage `json:"metadata"`
	CreatedAt         time.Time       `json:"created_at"`
}

// IdempotencyKey is the composite key used for deduplication.
type IdempotencyKey struct {
	AccountID         uuid.UUID
	ExternalReference string
}

// String renders the key for in-process locking and logging.
func (k IdempotencyKey) String() string {
	return k.AccountID.String() + "/" + k.ExternalReference
}
