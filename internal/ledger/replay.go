package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

// ReplayStep is one scripted command in a deterministic replay. Apply runs
// inside its own committed transaction; set ExpectError for steps that must
// be rejected (the transaction rolls back and the ledger must be untouched).
type ReplayStep struct {
	Name        string
	ExpectError bool
	Apply       func(ctx context.Context, tx pgx.Tx, eng *Engine) error
}

// ReplayViolation names an invariant broken after a step.
type ReplayViolation struct {
	Step   string
	Detail string
}

// ReplayReport summarizes a replay run.
type ReplayReport struct {
	Steps      int
	Violations []ReplayViolation
}

// Clean reports whether the run broke no invariants.
func (r *ReplayReport) Clean() bool { return len(r.Violations) == 0 }

// Replayer drives a scripted command sequence against one account and sweeps
// the ledger invariants after every step:
//
//   - the account audit (conservation, non-negative balances, bonus bound)
//   - outbox parity: every ledger entry committed exactly one wallet event
//
// Used to validate command orderings that are hard to hit reliably through
// the HTTP surface, such as interleavings of cancels and transfers.
type Replayer struct {
	pool      *pgxpool.Pool
	eng       *Engine
	accountID uuid.UUID
}

// NewReplayer creates a replayer bound to one account.
func NewReplayer(pool *pgxpool.Pool, eng *Engine, accountID uuid.UUID) *Replayer {
	return &Replayer{pool: pool, eng: eng, accountID: accountID}
}

// Run executes the steps in order. Step errors are part of the script
// (ExpectError); infrastructure failures abort the run.
func (r *Replayer) Run(ctx context.Context, steps []ReplayStep) (*ReplayReport, error) {
	report := &ReplayReport{}

	for _, step := range steps {
		report.Steps++

		if err := r.runStep(ctx, step); err != nil {
			if !step.ExpectError {
				report.Violations = append(report.Violations, ReplayViolation{
					Step:   step.Name,
					Detail: fmt.Sprintf("unexpected error: %v", err),
				})
			}
		} else if step.ExpectError {
			report.Violations = append(report.Violations, ReplayViolation{
				Step:   step.Name,
				Detail: "expected rejection, command succeeded",
			})
		}

		if err := r.sweep(ctx, step.Name, report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

func (r *Replayer) runStep(ctx context.Context, step ReplayStep) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("replay begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := step.Apply(ctx, tx, r.eng); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Replayer) sweep(ctx context.Context, stepName string, report *ReplayReport) error {
	audit, err := r.eng.AuditAccount(ctx, r.pool, r.accountID)
	if err != nil {
		return fmt.Errorf("replay audit after %s: %w", stepName, err)
	}
	for _, v := range audit.Violations {
		report.Violations = append(report.Violations, ReplayViolation{Step: stepName, Detail: v})
	}

	entryCount, err := r.eng.entries.CountByAccount(ctx, r.pool, r.accountID)
	if err != nil {
		return fmt.Errorf("replay count entries after %s: %w", stepName, err)
	}
	eventCount, err := r.eng.outbox.CountByAggregate(ctx, r.pool, domain.AggregateWallet, r.accountID.String())
	if err != nil {
		return fmt.Errorf("replay count events after %s: %w", stepName, err)
	}
	if entryCount != eventCount {
		report.Violations = append(report.Violations, ReplayViolation{
			Step:   stepName,
			Detail: fmt.Sprintf("outbox parity broken: %d entries, %d wallet events", entryCount, eventCount),
		})
	}

	return nil
}
