package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

// ExecuteAdjustment posts an operator correction with a signed amount against
// the main balance. Debits that would take the balance negative are rejected.
func (e *Engine) ExecuteAdjustment(ctx context.Context, tx pgx.Tx, params domain.AdjustmentParams) (*domain.CommandResult, error) {
	if err := domain.ValidateNonZeroAmount(params.Amount); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateReference(params.ExternalReference); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("adjustment: %w", err)
	}

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

	if params.Amount < 0 && account.Balance+params.Amount < 0 {
		return nil, domain.ErrInsufficientFunds()
	}

	entry, updated, _, err := e.PostEntry(ctx, tx, account, domain.PostEntryParams{
		AccountID:         params.AccountID,
		Kind:              domain.KindAdjustment,
		Amount:            params.Amount,
		ExternalReference: strPtr(params.ExternalReference),
		RoundID:           strPtr(params.RoundID),
		Metadata:          ensureJSON(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("adjustment post: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Account: updated}, nil
}
