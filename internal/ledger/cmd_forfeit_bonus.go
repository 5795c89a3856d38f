package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

// ExecuteBonusForfeit voids a bonus instance. Its remaining value is removed
// from the overlay (playable for active instances, locked for completed ones)
// without ever touching the main balance; a zero-amount entry records it.
func (e *Engine) ExecuteBonusForfeit(ctx context.Context, tx pgx.Tx, params domain.BonusForfeitParams) (*domain.CommandResult, error) {
	if err := domain.ValidateReference(params.ExternalReference); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("forfeit bonus: %w", err)
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

	wallet, err := e.bonuses.LockWallet(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("forfeit lock bonus wallet: %w", err)
	}

	instance, err := e.bonuses.FindInstance(ctx, tx, params.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("forfeit find instance: %w", err)
	}
	if instance == nil || instance.AccountID != params.AccountID {
		return nil, domain.ErrValidation(fmt.Sprintf("bonus instance %s not found for account", params.InstanceID))
	}

	update := domain.BonusUpdate{}
	switch instance.Status {
	case domain.BonusStatusActive:
		forfeited := instance.RemainingBonus
		if forfeited > wallet.PlayableBalance {
			forfeited = wallet.PlayableBalance
		}
		update.Playable = -forfeited
		update.Forfeited = forfeited
		update.ActiveCount = -1
	case domain.BonusStatusCompleted:
		update.Locked = -instance.RemainingBonus
		update.Forfeited = instance.RemainingBonus
	default:
		return nil, domain.ErrConflict(fmt.Sprintf("bonus instance %s is %s and cannot be forfeited", instance.ID, instance.Status))
	}

	wallet, err = e.bonuses.ApplyUpdate(ctx, tx, params.AccountID, update)
	if err != nil {
		return nil, fmt.Errorf("forfeit bonus update: %w", err)
	}

	instance.Status = domain.BonusStatusForfeited
	if err := e.bonuses.UpdateInstance(ctx, tx, instance); err != nil {
		return nil, fmt.Errorf("forfeit update instance: %w", err)
	}

	meta := mergeMeta(nil, map[string]interface{}{
		"bonusInstanceId": instance.ID.String(),
		"forfeitedAmount": update.Forfeited,
	})

	entry, updated, _, err := e.PostEntry(ctx, tx, account, domain.PostEntryParams{
		AccountID:         params.AccountID,
		Kind:              domain.KindBonusForfeit,
		Amount:            0,
		ExternalReference: strPtr(params.ExternalReference),
		Metadata:          meta,
	})
	if err != nil {
		return nil, fmt.Errorf("forfeit post: %w", err)
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewBonusEvent(domain.EventBonusForfeited, wallet)); err != nil {
		return nil, fmt.Errorf("forfeit outbox event: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Account: updated, BonusWallet: wallet}, nil
}
