package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

// ExecuteCancel reverses a previously posted transaction. It writes exactly
// one reversal entry with the negated amount, links it to the original via
// target_entry_id, and flips the original completed -> cancelled. Repeated
// cancels of the same reference replay the first reversal's result.
//
// The reversal entry is written in cancelled state from birth: the cancelled
// pair nets out of the completed sum, so the conservation check over
// completed entries stays exact through a cancellation.
func (e *Engine) ExecuteCancel(ctx context.Context, tx pgx.Tx, params domain.CancelParams) (*domain.CommandResult, error) {
	if err := domain.ValidateReference(params.OriginalReference); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("cancel: %w", err)
	}

	cancelRef := domain.CancelReference(params.OriginalReference)

	// Idempotency: a prior reversal wins, regardless of who sent this one.
	priorReversal, err := e.FindExistingEntry(ctx, tx, domain.IdempotencyKey{
		AccountID:         params.AccountID,
		ExternalReference: cancelRef,
	})
	if err != nil {
		return nil, err
	}
	if priorReversal != nil {
		return &domain.CommandResult{Entry: priorReversal, Account: account, Idempotent: true}, nil
	}

	original, err := e.FindExistingEntry(ctx, tx, domain.IdempotencyKey{
		AccountID:         params.AccountID,
		ExternalReference: params.OriginalReference,
	})
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, domain.ErrOriginalNotFound(params.OriginalReference)
	}
	if original.Status == domain.EntryCancelled {
		// Cancelled original without a reversal entry should not happen;
		// surface it rather than double-reverse.
		return nil, domain.ErrAlreadyCancelled(params.OriginalReference)
	}

	reversalKind, ok := domain.ReversalKindMap[original.Kind]
	if !ok {
		return nil, domain.ErrValidation(fmt.Sprintf("entries of kind %s cannot be cancelled", original.Kind))
	}

	reversalAmount := -original.Amount

	if original.Category != nil {
		cat, err := e.categories.LockForUpdate(ctx, tx, params.AccountID, *original.Category)
		if err != nil {
			return nil, fmt.Errorf("cancel lock category: %w", err)
		}
		if cat.Balance+reversalAmount < 0 {
			return nil, domain.ErrInsufficientFunds()
		}
	} else if account.Balance+reversalAmount < 0 {
		// Reversing a payout the player has since spent.
		return nil, domain.ErrInsufficientFunds()
	}

	wallet, err := e.reverseBonusEffects(ctx, tx, original)
	if err != nil {
		return nil, err
	}

	meta := mergeMeta(params.Metadata, map[string]interface{}{
		"cancelledReference": params.OriginalReference,
	})

	entry, updated, updatedCat, err := e.PostEntry(ctx, tx, account, domain.PostEntryParams{
		AccountID:         params.AccountID,
		Kind:              reversalKind,
		Amount:            reversalAmount,
		Status:            domain.EntryCancelled,
		ExternalReference: strPtr(cancelRef),
		RoundID:           original.RoundID,
		Category:          original.Category,
		TargetEntryID:     &original.ID,
		Metadata:          meta,
	})
	if err != nil {
		return nil, fmt.Errorf("cancel post: %w", err)
	}

	if err := e.entries.MarkCancelled(ctx, tx, original.ID); err != nil {
		return nil, fmt.Errorf("cancel mark original: %w", err)
	}

	return &domain.CommandResult{
		Entry:       entry,
		Account:     updated,
		Category:    updatedCat,
		BonusWallet: wallet,
	}, nil
}

// reverseBonusEffects unwinds the bonus overlay's share of a main-balance
// stake or payout. The wagering counters are monotonic and keep whatever
// progress the original contributed; only the playable bucket moves back.
func (e *Engine) reverseBonusEffects(ctx context.Context, tx pgx.Tx, original *domain.LedgerEntry) (*domain.BonusWallet, error) {
	if original.Category != nil {
		return nil, nil
	}

	var meta map[string]interface{}
	if err := jsonUnmarshal(original.Metadata, &meta); err != nil {
		return nil, nil
	}

	switch original.Kind {
	case domain.KindStake:
		bonusStake := metaInt64(meta, "bonusStake")
		if bonusStake <= 0 {
			return nil, nil
		}
		wallet, err := e.bonuses.ApplyUpdate(ctx, tx, original.AccountID, domain.BonusUpdate{
			Playable: bonusStake,
		})
		if err != nil {
			return nil, fmt.Errorf("cancel restore bonus stake: %w", err)
		}
		return wallet, nil

	case domain.KindPayout:
		bonusWin := metaInt64(meta, "bonusWin")
		if bonusWin <= 0 {
			return nil, nil
		}
		wallet, err := e.bonuses.LockWallet(ctx, tx, original.AccountID)
		if err != nil {
			return nil, fmt.Errorf("cancel lock bonus wallet: %w", err)
		}
		// The win may already be partly wagered away; claw back what is left.
		clawback := bonusWin
		if clawback > wallet.PlayableBalance {
			clawback = wallet.PlayableBalance
		}
		if clawback == 0 {
			return wallet, nil
		}
		wallet, err = e.bonuses.ApplyUpdate(ctx, tx, original.AccountID, domain.BonusUpdate{
			Playable: -clawback,
		})
		if err != nil {
			return nil, fmt.Errorf("cancel claw back bonus win: %w", err)
		}
		return wallet, nil
	}

	return nil, nil
}
