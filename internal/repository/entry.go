package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
	"github.com/user01samiul/jx-backend-sub007/internal/infra"
)

const entryColumns = `id, account_id, kind, amount, balance_before, balance_after,
	       external_reference, status, round_id, category, target_entry_id, metadata, created_at`

type entryRepo struct{}

// NewEntryRepository returns a pgx-backed EntryRepository.
func NewEntryRepository() EntryRepository {
	return &entryRepo{}
}

func (r *entryRepo) FindExisting(ctx context.Context, db DBTX, key domain.IdempotencyKey) (*domain.LedgerEntry, error) {
	row := db.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE account_id = $1 AND external_reference = $2`,
		key.AccountID, key.ExternalReference)
	return scanEntry(row)
}

func (r *entryRepo) Insert(ctx context.Context, db DBTX, params domain.PostEntryParams, before, after int64) (*domain.LedgerEntry, error) {
	meta := params.Metadata
	if meta == nil {
		meta = json.RawMessage(`{}`)
	}
	status := params.Status
	if status == "" {
		status = domain.EntryCompleted
	}

	row := db.QueryRow(ctx, `
		INSERT INTO ledger_entries
		  (account_id, kind, amount, balance_before, balance_after,
		   external_reference, status, round_id, category, target_entry_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+entryColumns,
		params.AccountID,
		string(params.Kind),
		infra.Int64ToNumeric(params.Amount),
		infra.Int64ToNumeric(before),
		infra.Int64ToNumeric(after),
		params.ExternalReference,
		string(status),
		params.RoundID,
		params.Category,
		params.TargetEntryID,
		meta,
	)
	return scanEntry(row)
}

func (r *entryRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.LedgerEntry, error) {
	row := db.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries WHERE id = $1`, id)
	return scanEntry(row)
}

// MarkCancelled is the single permitted mutation of a ledger entry: the
// completed -> cancelled flip, exactly once.
func (r *entryRepo) MarkCancelled(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `
		UPDATE ledger_entries SET status = $1
		WHERE id = $2 AND status = $3`,
		string(domain.EntryCancelled), id, string(domain.EntryCompleted))
	if err != nil {
		return fmt.Errorf("mark cancelled: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("mark cancelled: entry %s not in completed state", id)
	}
	return nil
}

func (r *entryRepo) ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *entryRepo) ListByRound(ctx context.Context, db DBTX, roundID string) ([]domain.LedgerEntry, error) {
	rows, err := db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries
		WHERE round_id = $1
		ORDER BY created_at ASC`, roundID)
	if err != nil {
		return nil, fmt.Errorf("query round entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *entryRepo) SumCompleted(ctx context.Context, db DBTX, accountID uuid.UUID, category *string) (int64, error) {
	var query string
	args := []interface{}{accountID}
	if category == nil {
		query = `
			SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
			WHERE account_id = $1 AND status = 'completed' AND category IS NULL`
	} else {
		query = `
			SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
			WHERE account_id = $1 AND status = 'completed' AND category = $2`
		args = append(args, *category)
	}

	var sumNum pgtype.Numeric
	if err := db.QueryRow(ctx, query, args...).Scan(&sumNum); err != nil {
		return 0, fmt.Errorf("sum completed entries: %w", err)
	}
	sum, err := infra.NumericToInt64(sumNum)
	if err != nil {
		return 0, fmt.Errorf("convert entry sum: %w", err)
	}
	return sum, nil
}

// FindOrphanTransferLegs pairs transfer legs on their shared base reference
// and returns any leg whose sibling never committed.
func (r *entryRepo) FindOrphanTransferLegs(ctx context.Context, db DBTX) ([]domain.LedgerEntry, error) {
	rows, err := db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries out_leg
		WHERE out_leg.kind IN ('transfer_out', 'transfer_in')
		  AND NOT EXISTS (
			SELECT 1 FROM ledger_entries sibling
			WHERE sibling.account_id = out_leg.account_id
			  AND sibling.id <> out_leg.id
			  AND sibling.kind IN ('transfer_out', 'transfer_in')
			  AND split_part(sibling.external_reference, ':', 1) =
			      split_part(out_leg.external_reference, ':', 1)
		  )`)
	if err != nil {
		return nil, fmt.Errorf("query orphan transfer legs: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *entryRepo) CountByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) (int64, error) {
	var count int64
	err := db.QueryRow(ctx,
		`SELECT count(*) FROM ledger_entries WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	var amountNum, beforeNum, afterNum pgtype.Numeric
	err := row.Scan(
		&e.ID, &e.AccountID, &e.Kind,
		&amountNum, &beforeNum, &afterNum,
		&e.ExternalReference, &e.Status, &e.RoundID, &e.Category,
		&e.TargetEntryID, &e.Metadata, &e.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}

	if e.Amount, err = infra.NumericToInt64(amountNum); err != nil {
		return nil, fmt.Errorf("convert amount: %w", err)
	}
	if e.BalanceBefore, err = infra.NumericToInt64(beforeNum); err != nil {
		return nil, fmt.Errorf("convert balance_before: %w", err)
	}
	if e.BalanceAfter, err = infra.NumericToInt64(afterNum); err != nil {
		return nil, fmt.Errorf("convert balance_after: %w", err)
	}

	return &e, nil
}

func collectEntries(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var amountNum, beforeNum, afterNum pgtype.Numeric
		err := rows.Scan(
			&e.ID, &e.AccountID, &e.Kind,
			&amountNum, &beforeNum, &afterNum,
			&e.ExternalReference, &e.Status, &e.RoundID, &e.Category,
			&e.TargetEntryID, &e.Metadata, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		if e.Amount, err = infra.NumericToInt64(amountNum); err != nil {
			return nil, err
		}
		if e.BalanceBefore, err = infra.NumericToInt64(beforeNum); err != nil {
			return nil, err
		}
		if e.BalanceAfter, err = infra.NumericToInt64(afterNum); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
