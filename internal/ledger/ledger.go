package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
	"github.com/user01samiul/jx-backend-sub007/internal/repository"
)

// Engine provides the 3 foundational ledger operations:
//  1. LockAccountForUpdate — row-level pessimistic lock
//  2. FindExistingEntry — idempotency check
//  3. PostEntry — atomic balance update + append-only insert + outbox event
//
// Locking is scoped to one account row, so operations against different
// accounts never block each other while everything against one account
// serializes. Category and bonus rows are always locked after the account
// row, never before.
type Engine struct {
	accounts   repository.AccountRepository
	categories repository.CategoryRepository
	entries    repository.EntryRepository
	bonuses    repository.BonusRepository
	outbox     repository.OutboxRepository
}

// NewEngine creates a ledger engine with the given repositories.
func NewEngine(
	accounts repository.AccountRepository,
	categories repository.CategoryRepository,
	entries repository.EntryRepository,
	bonuses repository.BonusRepository,
	outbox repository.OutboxRepository,
) *Engine {
	return &Engine{
		accounts:   accounts,
		categories: categories,
		entries:    entries,
		bonuses:    bonuses,
		outbox:     outbox,
	}
}

// LockAccountForUpdate acquires a row-level lock and returns the account.
// Must be called within a transaction.
func (e *Engine) LockAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*domain.Account, error) {
	account, err := e.accounts.LockForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound(accountID.String())
	}
	return account, nil
}

// FindExistingEntry checks if an entry with the same idempotency key exists.
// Returns nil if no duplicate found. Must run inside the same locked
// transaction as the write it guards, which closes the race between two
// concurrent replays of one provider transaction id.
func (e *Engine) FindExistingEntry(ctx context.Context, tx pgx.Tx, key domain.IdempotencyKey) (*domain.LedgerEntry, error) {
	existing, err := e.entries.FindExisting(ctx, tx, key)
	if err != nil {
		return nil, fmt.Errorf("find existing entry: %w", err)
	}
	return existing, nil
}

// PostEntry atomically moves a balance and appends the matching ledger entry.
// All commands delegate to this write primitive.
//
// Steps:
//  1. Apply the signed amount with server-side arithmetic — to the main
//     balance, or to the (account, category) balance when Category is set
//  2. Insert the ledger entry with before/after snapshots
//  3. Insert the outbox event
//
// All 3 steps run within the caller's transaction, so a balance is never
// written without its entry or vice versa.
func (e *Engine) PostEntry(ctx context.Context, tx pgx.Tx, account *domain.Account, params domain.PostEntryParams) (*domain.LedgerEntry, *domain.Account, *domain.CategoryBalance, error) {
	var (
		before, after int64
		updated       = account
		updatedCat    *domain.CategoryBalance
		err           error
	)

	if params.Category != nil {
		updatedCat, err = e.categories.ApplyDelta(ctx, tx, params.AccountID, *params.Category, params.Amount)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("apply category delta: %w", err)
		}
		if updatedCat == nil {
			return nil, nil, nil, domain.ErrValidation(fmt.Sprintf("category %s not initialized for account", *params.Category))
		}
		after = updatedCat.Balance
	} else {
		updated, err = e.accounts.ApplyDelta(ctx, tx, params.AccountID, params.Amount)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("apply balance delta: %w", err)
		}
		if updated == nil {
			return nil, nil, nil, domain.ErrAccountNotFound(params.AccountID.String())
		}
		after = updated.Balance
	}
	before = after - params.Amount

	entry, err := e.entries.Insert(ctx, tx, params, before, after)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("insert entry: %w", err)
	}

	event := domain.NewEntryPostedEvent(entry, updated.Balance, account.Currency)
	if err := e.outbox.Insert(ctx, tx, event); err != nil {
		return nil, nil, nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return entry, updated, updatedCat, nil
}

// GetBalance returns the current account state without taking the exclusive
// lock, so reads run concurrently with writers.
func (e *Engine) GetBalance(ctx context.Context, db repository.DBTX, accountID uuid.UUID) (*domain.Account, error) {
	account, err := e.accounts.FindByID(ctx, db, accountID)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound(accountID.String())
	}
	return account, nil
}

// GetCategoryBalances returns the per-category sub-balances for an account.
func (e *Engine) GetCategoryBalances(ctx context.Context, db repository.DBTX, accountID uuid.UUID) ([]domain.CategoryBalance, error) {
	balances, err := e.categories.ListByAccount(ctx, db, accountID)
	if err != nil {
		return nil, fmt.Errorf("get category balances: %w", err)
	}
	return balances, nil
}
