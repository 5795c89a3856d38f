package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

// ExecuteGrantBonus credits a new bonus to the playable bucket and opens a
// wagering instance. The main balance does not move; a zero-amount ledger
// entry records the grant for idempotency and audit.
func (e *Engine) ExecuteGrantBonus(ctx context.Context, tx pgx.Tx, params domain.GrantBonusParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateReference(params.ExternalReference); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if params.WageringMultiplier < 0 {
		return nil, domain.ErrValidation("wagering multiplier must be non-negative")
	}

	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("grant bonus: %w", err)
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

	if _, err := e.bonuses.LockWallet(ctx, tx, params.AccountID); err != nil {
		return nil, fmt.Errorf("grant lock bonus wallet: %w", err)
	}

	wallet, err := e.bonuses.ApplyUpdate(ctx, tx, params.AccountID, domain.BonusUpdate{
		Playable:    params.Amount,
		Received:    params.Amount,
		ActiveCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("grant bonus update: %w", err)
	}

	instance := &domain.BonusInstance{
		ID:                  uuid.New(),
		AccountID:           params.AccountID,
		Amount:              params.Amount,
		RemainingBonus:      params.Amount,
		WageringRequirement: int64(float64(params.Amount) * params.WageringMultiplier),
		Status:              domain.BonusStatusActive,
	}
	if err := e.bonuses.CreateInstance(ctx, tx, instance); err != nil {
		return nil, fmt.Errorf("grant create instance: %w", err)
	}

	meta := mergeMeta(nil, map[string]interface{}{
		"bonusInstanceId":    instance.ID.String(),
		"bonusAmount":        params.Amount,
		"wageringMultiplier": params.WageringMultiplier,
	})

	entry, updated, _, err := e.PostEntry(ctx, tx, account, domain.PostEntryParams{
		AccountID:         params.AccountID,
		Kind:              domain.KindBonusGrant,
		Amount:            0,
		ExternalReference: strPtr(params.ExternalReference),
		Metadata:          meta,
	})
	if err != nil {
		return nil, fmt.Errorf("grant post: %w", err)
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewBonusEvent(domain.EventBonusGranted, wallet)); err != nil {
		return nil, fmt.Errorf("grant outbox event: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Account: updated, BonusWallet: wallet}, nil
}
