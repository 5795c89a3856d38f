package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

// ExecuteBonusRelease converts a completed bonus instance into withdrawable
// funds: the instance's remaining value leaves the locked bucket and a
// positive bonus_release entry credits the main balance.
func (e *Engine) ExecuteBonusRelease(ctx context.Context, tx pgx.Tx, params domain.BonusReleaseParams) (*domain.CommandResult, error) {
	if err := domain.ValidateReference(params.ExternalReference); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("release bonus: %w", err)
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
		return nil, fmt.Errorf("release lock bonus wallet: %w", err)
	}

	instance, err := e.bonuses.FindInstance(ctx, tx, params.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("release find instance: %w", err)
	}
	if instance == nil || instance.AccountID != params.AccountID {
		return nil, domain.ErrValidation(fmt.Sprintf("bonus instance %s not found for account", params.InstanceID))
	}
	if instance.Status != domain.BonusStatusCompleted {
		return nil, domain.ErrConflict(fmt.Sprintf("bonus instance %s is %s, only completed instances release", instance.ID, instance.Status))
	}

	amount := instance.RemainingBonus

	wallet, err := e.bonuses.ApplyUpdate(ctx, tx, params.AccountID, domain.BonusUpdate{
		Locked:   -amount,
		Released: amount,
	})
	if err != nil {
		return nil, fmt.Errorf("release bonus update: %w", err)
	}

	instance.Status = domain.BonusStatusReleased
	if err := e.bonuses.UpdateInstance(ctx, tx, instance); err != nil {
		return nil, fmt.Errorf("release update instance: %w", err)
	}

	meta := mergeMeta(nil, map[string]interface{}{
		"bonusInstanceId": instance.ID.String(),
	})

	entry, updated, _, err := e.PostEntry(ctx, tx, account, domain.PostEntryParams{
		AccountID:         params.AccountID,
		Kind:              domain.KindBonusRelease,
		Amount:            amount,
		ExternalReference: strPtr(params.ExternalReference),
		Metadata:          meta,
	})
	if err != nil {
		return nil, fmt.Errorf("release post: %w", err)
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewBonusEvent(domain.EventBonusReleased, wallet)); err != nil {
		return nil, fmt.Errorf("release outbox event: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Account: updated, BonusWallet: wallet}, nil
}
