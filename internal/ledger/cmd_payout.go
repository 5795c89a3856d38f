package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

// ExecutePayout credits a win. While the account has an active bonus the win
// credits the playable bonus bucket instead of the main balance, mirroring
// how the stake was funded; otherwise it credits main (or the category
// balance for category-tagged payouts).
func (e *Engine) ExecutePayout(ctx context.Context, tx pgx.Tx, params domain.PayoutParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateReference(params.ExternalReference); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	// Lock
	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("payout: %w", err)
	}

	// Idempotency check
	existing, err := e.FindExistingEntry(ctx, tx, domain.IdempotencyKey{
		AccountID:         params.AccountID,
		ExternalReference: params.ExternalReference,
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &domain.CommandResult{Entry: existing, Account: account, Idempotent: true}, nil
	}

	if params.Category != "" {
		if err := domain.ValidateCategory(params.Category); err != nil {
			return nil, domain.ErrValidation(err.Error())
		}
		if _, err := e.categories.LockForUpdate(ctx, tx, params.AccountID, params.Category); err != nil {
			return nil, fmt.Errorf("payout lock category: %w", err)
		}

		entry, updated, updatedCat, err := e.PostEntry(ctx, tx, account, domain.PostEntryParams{
			AccountID:         params.AccountID,
			Kind:              domain.KindPayout,
			Amount:            params.Amount,
			ExternalReference: strPtr(params.ExternalReference),
			RoundID:           strPtr(params.RoundID),
			Category:          strPtr(params.Category),
			Metadata:          ensureJSON(params.Metadata),
		})
		if err != nil {
			return nil, fmt.Errorf("payout post: %w", err)
		}
		return &domain.CommandResult{Entry: entry, Account: updated, Category: updatedCat}, nil
	}

	wallet, err := e.bonuses.LockWallet(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("payout lock bonus wallet: %w", err)
	}

	bonusWin := int64(0)
	mainWin := params.Amount
	if wallet.ActiveBonusCount > 0 {
		bonusWin = params.Amount
		mainWin = 0
		wallet, err = e.bonuses.ApplyUpdate(ctx, tx, params.AccountID, domain.BonusUpdate{
			Playable: bonusWin,
			Received: bonusWin,
		})
		if err != nil {
			return nil, fmt.Errorf("payout bonus update: %w", err)
		}
	}

	meta := mergeMeta(params.Metadata, map[string]interface{}{
		"mainWin":  mainWin,
		"bonusWin": bonusWin,
	})

	entry, updated, _, err := e.PostEntry(ctx, tx, account, domain.PostEntryParams{
		AccountID:         params.AccountID,
		Kind:              domain.KindPayout,
		Amount:            mainWin,
		ExternalReference: strPtr(params.ExternalReference),
		RoundID:           strPtr(params.RoundID),
		Metadata:          meta,
	})
	if err != nil {
		return nil, fmt.Errorf("payout post: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Account: updated, BonusWallet: wallet}, nil
}
