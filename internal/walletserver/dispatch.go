package walletserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
	"github.com/user01samiul/jx-backend-sub007/internal/guard"
	"github.com/user01samiul/jx-backend-sub007/internal/ledger"
	"github.com/user01samiul/jx-backend-sub007/internal/provider"
)

// Server wires the callback pipeline: verifier -> decoder -> key lock ->
// ledger engine, one pgx transaction per mutating command.
type Server struct {
	pool     *pgxpool.Pool
	eng      *ledger.Engine
	verifier *provider.Verifier
	keys     *guard.KeyLock
	metrics  *Metrics
	logger   *slog.Logger
}

// NewServer creates the wallet server.
func NewServer(
	pool *pgxpool.Pool,
	eng *ledger.Engine,
	verifier *provider.Verifier,
	metrics *Metrics,
	logger *slog.Logger,
) *Server {
	return &Server{
		pool:     pool,
		eng:      eng,
		verifier: verifier,
		keys:     guard.NewKeyLock(),
		metrics:  metrics,
		logger:   logger,
	}
}

// Dispatch routes a decoded command to the ledger and returns the provider
// envelope. Every mutating command runs in exactly one transaction holding
// one account-row lock scope; balance reads take no lock.
func (s *Server) Dispatch(ctx context.Context, cmd provider.Command) (provider.ResponseEnvelope, error) {
	switch c := cmd.(type) {
	case provider.BalanceCommand:
		return s.dispatchBalance(ctx, c)
	case provider.ChangeBalanceCommand:
		return s.dispatchChangeBalance(ctx, c)
	case provider.CancelCommand:
		return s.dispatchCancel(ctx, c)
	default:
		return provider.ResponseEnvelope{}, domain.ErrInternal("unhandled command type", nil)
	}
}

func (s *Server) dispatchBalance(ctx context.Context, cmd provider.BalanceCommand) (provider.ResponseEnvelope, error) {
	account, err := s.eng.GetBalance(ctx, s.pool, cmd.AccountID)
	if err != nil {
		return provider.ResponseEnvelope{}, err
	}
	s.metrics.ObserveBalance(account.Currency, account.Balance)
	return provider.OKResponse(account.Balance, account.Currency, ""), nil
}

func (s *Server) dispatchChangeBalance(ctx context.Context, cmd provider.ChangeBalanceCommand) (provider.ResponseEnvelope, error) {
	key := domain.IdempotencyKey{AccountID: cmd.AccountID, ExternalReference: cmd.TransactionID}
	release := s.keys.Acquire(key.String())
	defer release()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return provider.ResponseEnvelope{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	meta, _ := json.Marshal(map[string]string{"transactionType": cmd.TransactionType})

	var result *domain.CommandResult
	switch cmd.TransactionType {
	case provider.TxTypeBet:
		result, err = s.eng.ExecuteStake(ctx, tx, domain.StakeParams{
			AccountID:         cmd.AccountID,
			Amount:            -cmd.Amount, // wire amount is negative for bets
			ExternalReference: cmd.TransactionID,
			RoundID:           cmd.RoundID,
			Category:          cmd.Category,
			Metadata:          meta,
		})
	case provider.TxTypeWin:
		result, err = s.eng.ExecutePayout(ctx, tx, domain.PayoutParams{
			AccountID:         cmd.AccountID,
			Amount:            cmd.Amount,
			ExternalReference: cmd.TransactionID,
			RoundID:           cmd.RoundID,
			Category:          cmd.Category,
			Metadata:          meta,
		})
	case provider.TxTypeAdjustment:
		result, err = s.eng.ExecuteAdjustment(ctx, tx, domain.AdjustmentParams{
			AccountID:         cmd.AccountID,
			Amount:            cmd.Amount,
			ExternalReference: cmd.TransactionID,
			RoundID:           cmd.RoundID,
			Metadata:          meta,
		})
	default:
		return provider.ResponseEnvelope{}, domain.ErrInconsistentOperation(
			fmt.Sprintf("unhandled transaction_type %q", cmd.TransactionType))
	}
	if err != nil {
		return provider.ResponseEnvelope{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return provider.ResponseEnvelope{}, fmt.Errorf("commit transaction: %w", err)
	}

	if result.Idempotent {
		s.metrics.ObserveReplay()
	}
	s.metrics.ObserveBalance(result.Account.Currency, result.Account.Balance)

	// The replay answer comes from the stored entry's snapshot, so retries
	// always see the balance as of the original apply.
	return provider.OKResponse(result.Entry.BalanceAfter, result.Account.Currency, cmd.TransactionID), nil
}

func (s *Server) dispatchCancel(ctx context.Context, cmd provider.CancelCommand) (provider.ResponseEnvelope, error) {
	key := domain.IdempotencyKey{
		AccountID:         cmd.AccountID,
		ExternalReference: domain.CancelReference(cmd.TransactionID),
	}
	release := s.keys.Acquire(key.String())
	defer release()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return provider.ResponseEnvelope{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.eng.ExecuteCancel(ctx, tx, domain.CancelParams{
		AccountID:         cmd.AccountID,
		OriginalReference: cmd.TransactionID,
	})
	if err != nil {
		return provider.ResponseEnvelope{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return provider.ResponseEnvelope{}, fmt.Errorf("commit transaction: %w", err)
	}

	if result.Idempotent {
		s.metrics.ObserveReplay()
	}
	s.metrics.ObserveBalance(result.Account.Currency, result.Account.Balance)

	return provider.OKResponse(result.Entry.BalanceAfter, result.Account.Currency, cmd.TransactionID), nil
}
