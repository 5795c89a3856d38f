package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// AccountRepository provides access to accounts.
type AccountRepository interface {
	// FindByID returns an account by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Account, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns the account.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error)

	// Create inserts a new account.
	Create(ctx context.Context, db DBTX, account *domain.Account) error

	// ApplyDelta atomically moves the main balance using server-side arithmetic.
	ApplyDelta(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, delta int64) (*domain.Account, error)
}

// CategoryRepository provides access to category_balances.
type CategoryRepository interface {
	// LockForUpdate locks the (account, category) row, creating it at zero if
	// absent. Callers must already hold the account row lock.
	LockForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, category string) (*domain.CategoryBalance, error)

	// ApplyDelta atomically moves the category balance.
	ApplyDelta(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, category string, delta int64) (*domain.CategoryBalance, error)

	// ListByAccount returns all category balances for an account.
	ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) ([]domain.CategoryBalance, error)
}

// EntryRepository provides access to ledger_entries.
type EntryRepository interface {
	// FindExisting checks the idempotency index for a duplicate entry.
	FindExisting(ctx context.Context, db DBTX, key domain.IdempotencyKey) (*domain.LedgerEntry, error)

	// Insert creates a new ledger entry with before/after snapshots. Returns the inserted row.
	Insert(ctx context.Context, db DBTX, params domain.PostEntryParams, before, after int64) (*domain.LedgerEntry, error)

	// FindByID returns an entry by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.LedgerEntry, error)

	// MarkCancelled flips an entry's status to cancelled. Returns an error if
	// the entry was not in completed state.
	MarkCancelled(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// ListByAccount returns entries for an account ordered by created_at DESC.
	ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID, limit int) ([]domain.LedgerEntry, error)

	// ListByRound returns all entries in a game round, oldest first.
	ListByRound(ctx context.Context, db DBTX, roundID string) ([]domain.LedgerEntry, error)

	// SumCompleted returns sum(amount) over completed entries for one account
	// and balance scope (nil category = main balance).
	SumCompleted(ctx context.Context, db DBTX, accountID uuid.UUID, category *string) (int64, error)

	// FindOrphanTransferLegs returns transfer legs whose sibling leg is
	// missing. Steady state must return nothing; used by recovery checks.
	FindOrphanTransferLegs(ctx context.Context, db DBTX) ([]domain.LedgerEntry, error)

	// CountByAccount returns the total number of entries for an account.
	CountByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) (int64, error)
}

// BonusRepository provides access to bonus_wallets and bonus_instances.
type BonusRepository interface {
	// LockWallet locks the bonus wallet row, creating it at zero if absent.
	// Callers must already hold the account row lock.
	LockWallet(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*domain.BonusWallet, error)

	// FindWallet reads the bonus wallet without locking. Returns nil if the
	// account never held a bonus.
	FindWallet(ctx context.Context, db DBTX, accountID uuid.UUID) (*domain.BonusWallet, error)

	// ApplyUpdate applies bucket/counter deltas to the bonus wallet.
	ApplyUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, update domain.BonusUpdate) (*domain.BonusWallet, error)

	// CreateInstance inserts a new bonus instance.
	CreateInstance(ctx context.Context, tx pgx.Tx, instance *domain.BonusInstance) error

	// FindInstance returns a bonus instance by ID.
	FindInstance(ctx context.Context, db DBTX, id uuid.UUID) (*domain.BonusInstance, error)

	// ListActiveInstances returns active instances for an account, oldest first.
	ListActiveInstances(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) ([]domain.BonusInstance, error)

	// UpdateInstance persists wagering progress and status transitions.
	UpdateInstance(ctx context.Context, tx pgx.Tx, instance *domain.BonusInstance) error
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the ledger entry).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// CountByAggregate returns the number of events for one aggregate.
	CountByAggregate(ctx context.Context, db DBTX, aggregateType domain.AggregateType, aggregateID string) (int64, error)
}
