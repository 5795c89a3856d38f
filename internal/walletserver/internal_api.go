package walletserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

// The internal API serves collaborator services with a service JWT. Unlike
// the provider callback surface it uses real HTTP status codes; amounts are
// int64 minor units, not decimal strings.

type applyTransactionRequest struct {
	AccountID         uuid.UUID       `json:"account_id"`
	Kind              string          `json:"kind"` // stake, payout, adjustment
	Amount            int64           `json:"amount"`
	ExternalReference string          `json:"external_reference"`
	RoundID           string          `json:"round_id,omitempty"`
	Category          string          `json:"category,omitempty"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
}

func (s *Server) handleApplyTransaction(w http.ResponseWriter, r *http.Request) {
	var req applyTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrValidation("malformed request body"))
		return
	}

	key := domain.IdempotencyKey{AccountID: req.AccountID, ExternalReference: req.ExternalReference}
	release := s.keys.Acquire(key.String())
	defer release()

	tx, err := s.pool.Begin(r.Context())
	if err != nil {
		s.writeError(w, domain.ErrInternal("begin transaction", err))
		return
	}
	defer tx.Rollback(r.Context())

	var result *domain.CommandResult
	switch req.Kind {
	case "stake":
		result, err = s.eng.ExecuteStake(r.Context(), tx, domain.StakeParams{
			AccountID:         req.AccountID,
			Amount:            req.Amount,
			ExternalReference: req.ExternalReference,
			RoundID:           req.RoundID,
			Category:          req.Category,
			Metadata:          req.Metadata,
		})
	case "payout":
		result, err = s.eng.ExecutePayout(r.Context(), tx, domain.PayoutParams{
			AccountID:         req.AccountID,
			Amount:            req.Amount,
			ExternalReference: req.ExternalReference,
			RoundID:           req.RoundID,
			Category:          req.Category,
			Metadata:          req.Metadata,
		})
	case "adjustment":
		result, err = s.eng.ExecuteAdjustment(r.Context(), tx, domain.AdjustmentParams{
			AccountID:         req.AccountID,
			Amount:            req.Amount,
			ExternalReference: req.ExternalReference,
			RoundID:           req.RoundID,
			Metadata:          req.Metadata,
		})
	default:
		s.writeError(w, domain.ErrValidation(fmt.Sprintf("unknown kind %q", req.Kind)))
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		s.writeError(w, domain.ErrInternal("commit transaction", err))
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

type cancelTransactionRequest struct {
	AccountID         uuid.UUID `json:"account_id"`
	ExternalReference string    `json:"external_reference"`
}

func (s *Server) handleCancelTransaction(w http.ResponseWriter, r *http.Request) {
	var req cancelTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrValidation("malformed request body"))
		return
	}

	key := domain.IdempotencyKey{
		AccountID:         req.AccountID,
		ExternalReference: domain.CancelReference(req.ExternalReference),
	}
	release := s.keys.Acquire(key.String())
	defer release()

	tx, err := s.pool.Begin(r.Context())
	if err != nil {
		s.writeError(w, domain.ErrInternal("begin transaction", err))
		return
	}
	defer tx.Rollback(r.Context())

	result, err := s.eng.ExecuteCancel(r.Context(), tx, domain.CancelParams{
		AccountID:         req.AccountID,
		OriginalReference: req.ExternalReference,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		s.writeError(w, domain.ErrInternal("commit transaction", err))
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, domain.ErrValidation("invalid account id"))
		return
	}

	account, err := s.eng.GetBalance(r.Context(), s.pool, accountID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	categories, err := s.eng.GetCategoryBalances(r.Context(), s.pool, accountID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"account":    account,
		"categories": categories,
	})
}

func (s *Server) handleAccountAudit(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, domain.ErrValidation("invalid account id"))
		return
	}

	report, err := s.eng.AuditAccount(r.Context(), s.pool, accountID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

type categoryTransferRequest struct {
	Category          string                   `json:"category"`
	Amount            int64                    `json:"amount"`
	Direction         domain.TransferDirection `json:"direction"`
	ExternalReference string                   `json:"external_reference"`
}

func (s *Server) handleCategoryTransfer(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, domain.ErrValidation("invalid account id"))
		return
	}

	var req categoryTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrValidation("malformed request body"))
		return
	}

	release := s.keys.Acquire(accountID.String() + "/" + req.ExternalReference)
	defer release()

	tx, err := s.pool.Begin(r.Context())
	if err != nil {
		s.writeError(w, domain.ErrInternal("begin transaction", err))
		return
	}
	defer tx.Rollback(r.Context())

	result, err := s.eng.ExecuteCategoryTransfer(r.Context(), tx, domain.CategoryTransferParams{
		AccountID:         accountID,
		Category:          req.Category,
		Amount:            req.Amount,
		Direction:         req.Direction,
		ExternalReference: req.ExternalReference,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		s.writeError(w, domain.ErrInternal("commit transaction", err))
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

type bonusGrantRequest struct {
	Amount             int64   `json:"amount"`
	WageringMultiplier float64 `json:"wagering_multiplier"`
	ExternalReference  string  `json:"external_reference"`
}

func (s *Server) handleBonusGrant(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, domain.ErrValidation("invalid account id"))
		return
	}

	var req bonusGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrValidation("malformed request body"))
		return
	}

	release := s.keys.Acquire(accountID.String() + "/" + req.ExternalReference)
	defer release()

	tx, err := s.pool.Begin(r.Context())
	if err != nil {
		s.writeError(w, domain.ErrInternal("begin transaction", err))
		return
	}
	defer tx.Rollback(r.Context())

	result, err := s.eng.ExecuteGrantBonus(r.Context(), tx, domain.GrantBonusParams{
		AccountID:          accountID,
		Amount:             req.Amount,
		WageringMultiplier: req.WageringMultiplier,
		ExternalReference:  req.ExternalReference,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		s.writeError(w, domain.ErrInternal("commit transaction", err))
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

type bonusInstanceRequest struct {
	InstanceID        uuid.UUID `json:"instance_id"`
	ExternalReference string    `json:"external_reference"`
}

func (s *Server) handleBonusRelease(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, domain.ErrValidation("invalid account id"))
		return
	}

	var req bonusInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrValidation("malformed request body"))
		return
	}

	release := s.keys.Acquire(accountID.String() + "/" + req.ExternalReference)
	defer release()

	tx, err := s.pool.Begin(r.Context())
	if err != nil {
		s.writeError(w, domain.ErrInternal("begin transaction", err))
		return
	}
	defer tx.Rollback(r.Context())

	result, err := s.eng.ExecuteBonusRelease(r.Context(), tx, domain.BonusReleaseParams{
		AccountID:         accountID,
		InstanceID:        req.InstanceID,
		ExternalReference: req.ExternalReference,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		s.writeError(w, domain.ErrInternal("commit transaction", err))
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBonusForfeit(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, domain.ErrValidation("invalid account id"))
		return
	}

	var req bonusInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrValidation("malformed request body"))
		return
	}

	release := s.keys.Acquire(accountID.String() + "/" + req.ExternalReference)
	defer release()

	tx, err := s.pool.Begin(r.Context())
	if err != nil {
		s.writeError(w, domain.ErrInternal("begin transaction", err))
		return
	}
	defer tx.Rollback(r.Context())

	result, err := s.eng.ExecuteBonusForfeit(r.Context(), tx, domain.BonusForfeitParams{
		AccountID:         accountID,
		InstanceID:        req.InstanceID,
		ExternalReference: req.ExternalReference,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		s.writeError(w, domain.ErrInternal("commit transaction", err))
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOrphanTransfers(w http.ResponseWriter, r *http.Request) {
	orphans, err := s.eng.ReconcileTransfers(r.Context(), s.pool)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"orphans": orphans,
		"count":   len(orphans),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.ErrInternal("internal error", err)
	}
	if appErr.Status >= 500 {
		s.logger.Error("internal api error", "code", appErr.Code, "error", err)
	}
	s.writeJSON(w, appErr.Status, appErr)
}
