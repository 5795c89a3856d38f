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

type categoryRepo struct{}

// NewCategoryRepository returns a pgx-backed CategoryRepository.
func NewCategoryRepository() CategoryRepository {
	return &categoryRepo{}
}

// LockForUpdate upserts the row at zero first so a fresh (account, category)
// pair can be locked like any other. The account row lock is already held,
// so two callbacks for the same account cannot race the upsert.
func (r *categoryRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, category string) (*domain.CategoryBalance, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO category_balances (account_id, category, balance, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (account_id, category) DO NOTHING`,
		accountID, category)
	if err != nil {
		return nil, fmt.Errorf("ensure category balance: %w", err)
	}

	row := tx.QueryRow(ctx, `
		SELECT account_id, category, balance, updated_at
		FROM category_balances
		WHERE account_id = $1 AND category = $2 FOR UPDATE`,
		accountID, category)
	return scanCategoryBalance(row)
}

func (r *categoryRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, category string, delta int64) (*domain.CategoryBalance, error) {
	row := tx.QueryRow(ctx, `
		UPDATE category_balances SET balance = balance + $1, updated_at = now()
		WHERE account_id = $2 AND category = $3
		RETURNING account_id, category, balance, updated_at`,
		infra.Int64ToNumeric(delta), accountID, category)
	return scanCategoryBalance(row)
}

func (r *categoryRepo) ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) ([]domain.CategoryBalance, error) {
	rows, err := db.Query(ctx, `
		SELECT account_id, category, balance, updated_at
		FROM category_balances
		WHERE account_id = $1
		ORDER BY category`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query category balances: %w", err)
	}
	defer rows.Close()

	var balances []domain.CategoryBalance
	for rows.Next() {
		var cb domain.CategoryBalance
		var balNum pgtype.Numeric
		if err := rows.Scan(&cb.AccountID, &cb.Category, &balNum, &cb.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category balance: %w", err)
		}
		cb.Balance, err = infra.NumericToInt64(balNum)
		if err != nil {
			return nil, fmt.Errorf("convert category balance: %w", err)
		}
		balances = append(balances, cb)
	}
	return balances, rows.Err()
}

func scanCategoryBalance(row pgx.Row) (*domain.CategoryBalance, error) {
	var cb domain.CategoryBalance
	var balNum pgtype.Numeric
	err := row.Scan(&cb.AccountID, &cb.Category, &balNum, &cb.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan category balance: %w", err)
	}

	cb.Balance, err = infra.NumericToInt64(balNum)
	if err != nil {
		return nil, fmt.Errorf("convert category balance: %w", err)
	}

	return &cb, nil
}
