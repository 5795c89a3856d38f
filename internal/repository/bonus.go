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

const bonusWalletColumns = `account_id, locked_balance, playable_balance, total_received,
	       total_wagered, total_released, total_forfeited, total_transferred,
	       active_bonus_count, updated_at`

const bonusInstanceColumns = `id, account_id, amount, remaining_bonus, wagering_requirement,
	       wagered, status, created_at, updated_at`

type bonusRepo struct{}

// NewBonusRepository returns a pgx-backed BonusRepository.
func NewBonusRepository() BonusRepository {
	return &bonusRepo{}
}

// LockWallet upserts a zero wallet so first-touch accounts can be locked.
// The account row lock is already held, so the upsert cannot race.
func (r *bonusRepo) LockWallet(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*domain.BonusWallet, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO bonus_wallets (account_id, updated_at)
		VALUES ($1, now())
		ON CONFLICT (account_id) DO NOTHING`, accountID)
	if err != nil {
		return nil, fmt.Errorf("ensure bonus wallet: %w", err)
	}

	row := tx.QueryRow(ctx, `
		SELECT `+bonusWalletColumns+`
		FROM bonus_wallets WHERE account_id = $1 FOR UPDATE`, accountID)
	return scanBonusWallet(row)
}

func (r *bonusRepo) FindWallet(ctx context.Context, db DBTX, accountID uuid.UUID) (*domain.BonusWallet, error) {
	row := db.QueryRow(ctx, `
		SELECT `+bonusWalletColumns+`
		FROM bonus_wallets WHERE account_id = $1`, accountID)
	return scanBonusWallet(row)
}

func (r *bonusRepo) ApplyUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, update domain.BonusUpdate) (*domain.BonusWallet, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE bonus_wallets SET
			locked_balance = locked_balance + $1,
			playable_balance = playable_balance + $2,
			total_received = total_received + $3,
			total_wagered = total_wagered + $4,
			total_released = total_released + $5,
			total_forfeited = total_forfeited + $6,
			total_transferred = total_transferred + $7,
			active_bonus_count = active_bonus_count + $8,
			updated_at = now()
		WHERE account_id = $9
		RETURNING `+bonusWalletColumns,
		infra.Int64ToNumeric(update.Locked),
		infra.Int64ToNumeric(update.Playable),
		infra.Int64ToNumeric(update.Received),
		infra.Int64ToNumeric(update.Wagered),
		infra.Int64ToNumeric(update.Released),
		infra.Int64ToNumeric(update.Forfeited),
		infra.Int64ToNumeric(update.Transferred),
		update.ActiveCount,
		accountID,
	)
	return scanBonusWallet(row)
}

func (r *bonusRepo) CreateInstance(ctx context.Context, tx pgx.Tx, instance *domain.BonusInstance) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bonus_instances
		  (id, account_id, amount, remaining_bonus, wagering_requirement, wagered, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
		instance.ID,
		instance.AccountID,
		infra.Int64ToNumeric(instance.Amount),
		infra.Int64ToNumeric(instance.RemainingBonus),
		infra.Int64ToNumeric(instance.WageringRequirement),
		infra.Int64ToNumeric(instance.Wagered),
		string(instance.Status),
	)
	if err != nil {
		return fmt.Errorf("insert bonus instance: %w", err)
	}
	return nil
}

func (r *bonusRepo) FindInstance(ctx context.Context, db DBTX, id uuid.UUID) (*domain.BonusInstance, error) {
	row := db.QueryRow(ctx, `
		SELECT `+bonusInstanceColumns+`
		FROM bonus_instances WHERE id = $1`, id)
	return scanBonusInstance(row)
}

func (r *bonusRepo) ListActiveInstances(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) ([]domain.BonusInstance, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+bonusInstanceColumns+`
		FROM bonus_instances
		WHERE account_id = $1 AND status = 'active'
		ORDER BY created_at ASC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query active bonus instances: %w", err)
	}
	defer rows.Close()

	var instances []domain.BonusInstance
	for rows.Next() {
		inst, err := scanBonusInstanceRow(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, *inst)
	}
	return instances, rows.Err()
}

func (r *bonusRepo) UpdateInstance(ctx context.Context, tx pgx.Tx, instance *domain.BonusInstance) error {
	tag, err := tx.Exec(ctx, `
		UPDATE bonus_instances SET
			remaining_bonus = $1, wagered = $2, status = $3, updated_at = now()
		WHERE id = $4`,
		infra.Int64ToNumeric(instance.RemainingBonus),
		infra.Int64ToNumeric(instance.Wagered),
		string(instance.Status),
		instance.ID,
	)
	if err != nil {
		return fmt.Errorf("update bonus instance: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("update bonus instance: %s not found", instance.ID)
	}
	return nil
}

func scanBonusWallet(row pgx.Row) (*domain.BonusWallet, error) {
	var w domain.BonusWallet
	var locked, playable, received, wagered, released, forfeited, transferred pgtype.Numeric
	err := row.Scan(&w.AccountID, &locked, &playable, &received, &wagered,
		&released, &forfeited, &transferred, &w.ActiveBonusCount, &w.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan bonus wallet: %w", err)
	}

	fields := []struct {
		dst *int64
		src pgtype.Numeric
	}{
		{&w.LockedBalance, locked},
		{&w.PlayableBalance, playable},
		{&w.TotalReceived, received},
		{&w.TotalWagered, wagered},
		{&w.TotalReleased, released},
		{&w.TotalForfeited, forfeited},
		{&w.TotalTransferred, transferred},
	}
	for _, f := range fields {
		if *f.dst, err = infra.NumericToInt64(f.src); err != nil {
			return nil, fmt.Errorf("convert bonus wallet column: %w", err)
		}
	}

	return &w, nil
}

func scanBonusInstance(row pgx.Row) (*domain.BonusInstance, error) {
	inst, err := scanBonusInstanceRow(row)
	if err != nil && err == pgx.ErrNoRows {
		return nil, nil
	}
	return inst, err
}

func scanBonusInstanceRow(row pgx.Row) (*domain.BonusInstance, error) {
	var b domain.BonusInstance
	var amount, remaining, requirement, wagered pgtype.Numeric
	err := row.Scan(&b.ID, &b.AccountID, &amount, &remaining, &requirement,
		&wagered, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan bonus instance: %w", err)
	}

	if b.Amount, err = infra.NumericToInt64(amount); err != nil {
		return nil, fmt.Errorf("convert bonus amount: %w", err)
	}
	if b.RemainingBonus, err = infra.NumericToInt64(remaining); err != nil {
		return nil, fmt.Errorf("convert remaining_bonus: %w", err)
	}
	if b.WageringRequirement, err = infra.NumericToInt64(requirement); err != nil {
		return nil, fmt.Errorf("convert wagering_requirement: %w", err)
	}
	if b.Wagered, err = infra.NumericToInt64(wagered); err != nil {
		return nil, fmt.Errorf("convert wagered: %w", err)
	}

	return &b, nil
}
