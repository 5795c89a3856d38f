package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
	"github.com/user01samiul/jx-backend-sub007/internal/repository"
)

// ExecuteCategoryTransfer moves funds between the main balance and one
// category balance. A transfer is two entries sharing a base reference with
// ":out" and ":in" suffixes, both written in this transaction, so a committed
// transfer always carries both legs. ReconcileTransfers sweeps for legs that
// somehow lost their pair.
func (e *Engine) ExecuteCategoryTransfer(ctx context.Context, tx pgx.Tx, params domain.CategoryTransferParams) (*domain.TransferResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateReference(params.ExternalReference); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateCategory(params.Category); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if params.Direction != domain.TransferToCategory && params.Direction != domain.TransferToMain {
		return nil, domain.ErrValidation(fmt.Sprintf("unknown transfer direction %q", params.Direction))
	}

	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}

	outRef := params.ExternalReference + domain.TransferOutRefSuffix
	inRef := params.ExternalReference + domain.TransferInRefSuffix

	// Idempotency on the debit leg; the credit leg committed with it.
	existingOut, err := e.FindExistingEntry(ctx, tx, domain.IdempotencyKey{
		AccountID:         params.AccountID,
		ExternalReference: outRef,
	})
	if err != nil {
		return nil, err
	}
	if existingOut != nil {
		existingIn, err := e.FindExistingEntry(ctx, tx, domain.IdempotencyKey{
			AccountID:         params.AccountID,
			ExternalReference: inRef,
		})
		if err != nil {
			return nil, err
		}
		return &domain.TransferResult{
			DebitLeg:   existingOut,
			CreditLeg:  existingIn,
			Account:    account,
			Idempotent: true,
		}, nil
	}

	cat, err := e.categories.LockForUpdate(ctx, tx, params.AccountID, params.Category)
	if err != nil {
		return nil, fmt.Errorf("transfer lock category: %w", err)
	}

	if params.Direction == domain.TransferToCategory {
		if account.Balance-params.Amount < 0 {
			return nil, domain.ErrInsufficientFunds()
		}
	} else {
		if cat.Balance-params.Amount < 0 {
			return nil, domain.ErrInsufficientFunds()
		}
	}

	var debitCategory, creditCategory *string
	if params.Direction == domain.TransferToCategory {
		creditCategory = strPtr(params.Category)
	} else {
		debitCategory = strPtr(params.Category)
	}

	debit, updated, updatedCat, err := e.PostEntry(ctx, tx, account, domain.PostEntryParams{
		AccountID:         params.AccountID,
		Kind:              domain.KindTransferOut,
		Amount:            -params.Amount,
		ExternalReference: strPtr(outRef),
		Category:          debitCategory,
	})
	if err != nil {
		return nil, fmt.Errorf("transfer debit leg: %w", err)
	}

	credit, updated2, updatedCat2, err := e.PostEntry(ctx, tx, updated, domain.PostEntryParams{
		AccountID:         params.AccountID,
		Kind:              domain.KindTransferIn,
		Amount:            params.Amount,
		ExternalReference: strPtr(inRef),
		Category:          creditCategory,
	})
	if err != nil {
		return nil, fmt.Errorf("transfer credit leg: %w", err)
	}

	// Exactly one leg touched the category scope.
	finalCat := updatedCat2
	if finalCat == nil {
		finalCat = updatedCat
	}

	return &domain.TransferResult{
		DebitLeg:  debit,
		CreditLeg: credit,
		Account:   updated2,
		Category:  finalCat,
	}, nil
}

// ReconcileTransfers scans for transfer legs whose sibling never landed.
// A non-empty result means a write path violated the two-legs-per-transfer
// rule and needs operator attention.
func (e *Engine) ReconcileTransfers(ctx context.Context, db repository.DBTX) ([]domain.LedgerEntry, error) {
	orphans, err := e.entries.FindOrphanTransferLegs(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("reconcile transfers: %w", err)
	}
	return orphans, nil
}
