package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

// ExecuteStake debits a player's bet. When the account holds playable bonus
// funds the overlay intercepts the wager first: the stake draws playable
// bonus before touching the main balance, and the split is recorded in entry
// metadata for reversal.
//
// Category-tagged stakes debit the (account, category) balance instead of the
// main balance; the bonus overlay does not intercept those, since category
// wallets are funded explicitly.
func (e *Engine) ExecuteStake(ctx context.Context, tx pgx.Tx, params domain.StakeParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateReference(params.ExternalReference); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	// Lock
	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("stake: %w", err)
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
		return e.stakeCategory(ctx, tx, account, params)
	}
	return e.stakeMain(ctx, tx, account, params)
}

func (e *Engine) stakeCategory(ctx context.Context, tx pgx.Tx, account *domain.Account, params domain.StakeParams) (*domain.CommandResult, error) {
	if err := domain.ValidateCategory(params.Category); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	cat, err := e.categories.LockForUpdate(ctx, tx, params.AccountID, params.Category)
	if err != nil {
		return nil, fmt.Errorf("stake lock category: %w", err)
	}
	if cat.Balance-params.Amount < 0 {
		return nil, domain.ErrInsufficientFunds()
	}

	entry, updated, updatedCat, err := e.PostEntry(ctx, tx, account, domain.PostEntryParams{
		AccountID:         params.AccountID,
		Kind:              domain.KindStake,
		Amount:            -params.Amount,
		ExternalReference: strPtr(params.ExternalReference),
		RoundID:           strPtr(params.RoundID),
		Category:          strPtr(params.Category),
		Metadata:          ensureJSON(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("stake post: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Account: updated, Category: updatedCat}, nil
}

func (e *Engine) stakeMain(ctx context.Context, tx pgx.Tx, account *domain.Account, params domain.StakeParams) (*domain.CommandResult, error) {
	wallet, err := e.bonuses.LockWallet(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("stake lock bonus wallet: %w", err)
	}

	// Bonus-first split
	bonusStake := wallet.PlayableBalance
	if bonusStake > params.Amount {
		bonusStake = params.Amount
	}
	mainStake := params.Amount - bonusStake

	if account.Balance-mainStake < 0 {
		return nil, domain.ErrInsufficientFunds()
	}

	if bonusStake > 0 {
		wallet, err = e.bonuses.ApplyUpdate(ctx, tx, params.AccountID, domain.BonusUpdate{
			Playable: -bonusStake,
			Wagered:  bonusStake,
		})
		if err != nil {
			return nil, fmt.Errorf("stake bonus update: %w", err)
		}
		wallet, err = e.progressWagering(ctx, tx, wallet, bonusStake)
		if err != nil {
			return nil, fmt.Errorf("stake wagering progress: %w", err)
		}
	}

	meta := mergeMeta(params.Metadata, map[string]interface{}{
		"mainStake":  mainStake,
		"bonusStake": bonusStake,
	})

	entry, updated, _, err := e.PostEntry(ctx, tx, account, domain.PostEntryParams{
		AccountID:         params.AccountID,
		Kind:              domain.KindStake,
		Amount:            -mainStake,
		ExternalReference: strPtr(params.ExternalReference),
		RoundID:           strPtr(params.RoundID),
		Metadata:          meta,
	})
	if err != nil {
		return nil, fmt.Errorf("stake post: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Account: updated, BonusWallet: wallet}, nil
}

// progressWagering advances active bonus instances, oldest first, by the
// bonus-funded share of a stake. Instances whose requirement completes
// transition to completed and their remaining value moves playable -> locked,
// where it waits for release to the main account.
func (e *Engine) progressWagering(ctx context.Context, tx pgx.Tx, wallet *domain.BonusWallet, wagered int64) (*domain.BonusWallet, error) {
	instances, err := e.bonuses.ListActiveInstances(ctx, tx, wallet.AccountID)
	if err != nil {
		return nil, err
	}

	remaining := wagered
	for i := range instances {
		inst := &instances[i]
		if remaining <= 0 {
			break
		}

		share := inst.WageringRequirement - inst.Wagered
		if share > remaining {
			share = remaining
		}
		inst.Wagered += share
		remaining -= share

		if inst.IsWageringComplete() {
			inst.Status = domain.BonusStatusCompleted

			toLock := inst.RemainingBonus
			if toLock > wallet.PlayableBalance {
				toLock = wallet.PlayableBalance
			}
			inst.RemainingBonus = toLock

			wallet, err = e.bonuses.ApplyUpdate(ctx, tx, wallet.AccountID, domain.BonusUpdate{
				Playable:    -toLock,
				Locked:      toLock,
				ActiveCount: -1,
			})
			if err != nil {
				return nil, err
			}
		}

		if err := e.bonuses.UpdateInstance(ctx, tx, inst); err != nil {
			return nil, err
		}
	}

	return wallet, nil
}
