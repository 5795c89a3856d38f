package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BonusStatus tracks the lifecycle of a bonus instance.
type BonusStatus string

const (
	BonusStatusActive    BonusStatus = "active"
	BonusStatusCompleted BonusStatus = "completed"
	BonusStatusReleased  BonusStatus = "released"
	BonusStatusForfeited BonusStatus = "forfeited"
)

// BonusWallet is the per-account bonus overlay: live locked/playable buckets
// plus monotonic lifetime counters. The counters only ever increase, which
// makes the live balance cheaply auditable (see CheckConsistency).
type BonusWallet struct {
	AccountID        uuid.UUID `json:"account_id"`
	LockedBalance    int64     `json:"locked_balance"`
	PlayableBalance  int64     `json:"playable_balance"`
	TotalReceived    int64     `json:"total_received"`
	TotalWagered     int64     `json:"total_wagered"`
	TotalReleased    int64     `json:"total_released"`
	TotalForfeited   int64     `json:"total_forfeited"`
	TotalTransferred int64     `json:"total_transferred"`
	ActiveBonusCount int       `json:"active_bonus_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CheckConsistency validates the bonus wallet invariant:
//
//	locked + playable <= received - released - forfeited - transferred
func (w *BonusWallet) CheckConsistency() error {
	live := w.LockedBalance + w.PlayableBalance
	bound := w.TotalReceived - w.TotalReleased - w.TotalForfeited - w.TotalTransferred
	if live > bound {
		return fmt.Errorf("bonus wallet %s inconsistent: live %d exceeds bound %d", w.AccountID, live, bound)
	}
	if w.LockedBalance < 0 || w.PlayableBalance < 0 {
		return fmt.Errorf("bonus wallet %s has negative bucket: locked=%d playable=%d", w.AccountID, w.LockedBalance, w.PlayableBalance)
	}
	return nil
}

// BonusUpdate describes deltas applied to a bonus wallet. Counter deltas must
// be non-negative; the counters are monotonic.
type BonusUpdate struct {
	Locked      int64
	Playable    int64
	Received    int64
	Wagered     int64
	Released    int64
	Forfeited   int64
	Transferred int64
	ActiveCount int
}

// Validate rejects updates that would decrease a monotonic counter.
func (u BonusUpdate) Validate() error {
	if u.Received < 0 || u.Wagered < 0 || u.Released < 0 || u.Forfeited < 0 || u.Transferred < 0 {
		return fmt.Errorf("bonus counters are monotonic, got negative delta")
	}
	return nil
}

// IsZero reports whether the update changes nothing.
func (u BonusUpdate) IsZero() bool {
	return u == BonusUpdate{}
}

// BonusInstance is a single granted bonus with its wagering progress.
type BonusInstance struct {
	ID                  uuid.UUID   `json:"id"`
	AccountID           uuid.UUID   `json:"account_id"`
	Amount              int64       `json:"amount"`
	RemainingBonus      int64       `json:"remaining_bonus"`
	WageringRequirement int64       `json:"wagering_requirement"`
	Wagered             int64       `json:"wagered"`
	Status              BonusStatus `json:"status"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// IsWageringComplete checks if the wagering requirement has been met.
func (b *BonusInstance) IsWageringComplete() bool {
	return b.Wagered >= b.WageringRequirement
}
