package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
	"github.com/user01samiul/jx-backend-sub007/internal/infra"
)

type accountRepo struct{}

// NewAccountRepository returns a pgx-backed AccountRepository.
func NewAccountRepository() AccountRepository {
	return &accountRepo{}
}

func (r *accountRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Account, error) {
	row := db.QueryRow(ctx, `
		SELECT id, balance, currency, created_at, updated_at
		FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *accountRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, balance, currency, created_at, updated_at
		FROM accounts WHERE id = $1 FOR UPDATE`, id)
	return scanAccount(row)
}

func (r *accountRepo) Create(ctx context.Context, db DBTX, account *domain.Account) error {
	_, err := db.Exec(ctx, `
		INSERT INTO accounts (id, balance, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		account.ID,
		infra.Int64ToNumeric(account.Balance),
		account.Currency,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// ApplyDelta uses server-side arithmetic so the write is correct even if the
// in-memory snapshot went stale between lock and update.
func (r *accountRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, delta int64) (*domain.Account, error) {
	row := tx.QueryRow(ctx, `
		UPDATE accounts SET balance = balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING id, balance, currency, created_at, updated_at`,
		infra.Int64ToNumeric(delta), accountID)
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var balNum pgtype.Numeric
	err := row.Scan(&a.ID, &balNum, &a.Currency, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	a.Balance, err = infra.NumericToInt64(balNum)
	if err != nil {
		return nil, fmt.Errorf("convert balance: %w", err)
	}

	return &a, nil
}
