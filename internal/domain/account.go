package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a player's main wallet row. Balances are int64 minor units
// (cents) and are mutated only through ledger commands.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Balance   int64     `json:"balance"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryBalance is a per-(account, category) sub-balance for one game
// vertical (slots, live, sportsbook). Funds enter and leave it via explicit
// transfers or category-tagged stakes/payouts.
type CategoryBalance struct {
	AccountID uuid.UUID `json:"account_id"`
	Category  string    `json:"category"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransferDirection selects which way a category transfer moves funds.
type TransferDirection string

const (
	TransferToCategory TransferDirection = "to_category"
	TransferToMain     TransferDirection = "to_main"
)
