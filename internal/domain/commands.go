package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// PostEntryParams is the input to the atomic PostEntry operation.
// Amount is signed and applies to the account's main balance, or to the
// (account, category) balance when Category is set.
type PostEntryParams struct {
	AccountID         uuid.UUID
	Kind              EntryKind
	Amount            int64
	Status            EntryStatus
	ExternalReference *string
	RoundID           *string
	Category          *string
	TargetEntryID     *uuid.UUID
	Metadata          json.RawMessage
}

// CommandResult is the return value from all ledger commands.
type CommandResult struct {
	Entry       *LedgerEntry
	Account     *Account
	Category    *CategoryBalance
	BonusWallet *BonusWallet
	Idempotent  bool // true if this was a duplicate that returned the existing entry
}

// StakeParams holds the input for ExecuteStake. Amount is the positive stake
// value; the entry records the signed (negative) main-balance delta.
type StakeParams struct {
	AccountID         uuid.UUID
	Amount            int64
	ExternalReference string
	RoundID           string
	Category          string
	Metadata          json.RawMessage
}

// PayoutParams holds the input for ExecutePayout.
type PayoutParams struct {
	AccountID         uuid.UUID
	Amount            int64
	ExternalReference string
	RoundID           string
	Category          string
	Metadata          json.RawMessage
}

// AdjustmentParams holds the input for ExecuteAdjustment. Amount is signed.
type AdjustmentParams struct {
	AccountID         uuid.UUID
	Amount            int64
	ExternalReference string
	RoundID           string
	Metadata          json.RawMessage
}

// CancelParams holds the input for ExecuteCancel.
type CancelParams struct {
	AccountID         uuid.UUID
	OriginalReference string
	Metadata          json.RawMessage
}

// CategoryTransferParams holds the input for ExecuteCategoryTransfer.
type CategoryTransferParams struct {
	AccountID         uuid.UUID
	Category          string
	Amount            int64
	Direction         TransferDirection
	ExternalReference string
}

// TransferResult pairs the two legs of a category transfer.
type TransferResult struct {
	DebitLeg   *LedgerEntry
	CreditLeg  *LedgerEntry
	Account    *Account
	Category   *CategoryBalance
	Idempotent bool
}

// GrantBonusParams holds the input for ExecuteGrantBonus.
type GrantBonusParams struct {
	AccountID          uuid.UUID
	Amount             int64
	WageringMultiplier float64
	ExternalReference  string
}

// BonusReleaseParams holds the input for ExecuteBonusRelease.
type BonusReleaseParams struct {
	AccountID         uuid.UUID
	InstanceID        uuid.UUID
	ExternalReference string
}

// BonusForfeitParams holds the input for ExecuteBonusForfeit.
type BonusForfeitParams struct {
	AccountID         uuid.UUID
	InstanceID        uuid.UUID
	ExternalReference string
}
