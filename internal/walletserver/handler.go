package walletserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user01samiul/jx-backend-sub007/internal/auth"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
	"github.com/user01samiul/jx-backend-sub007/internal/provider"
)

// NewRouter builds the wallet server chi.Router: the provider callback
// endpoint, the JWT-protected internal API, and operational endpoints.
func NewRouter(s *Server, jwtMgr *auth.JWTManager) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s.logger.Info("wallet-server request",
				"method", req.Method,
				"path", req.URL.Path,
				"remote", req.RemoteAddr)
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/callback/{operator}", s.HandleCallback)

	r.Route("/internal", func(r chi.Router) {
		r.Use(auth.AuthenticateService(jwtMgr))
		r.Post("/transactions", s.handleApplyTransaction)
		r.Post("/transactions/cancel", s.handleCancelTransaction)
		r.Get("/accounts/{id}/balance", s.handleAccountBalance)
		r.Get("/accounts/{id}/audit", s.handleAccountAudit)
		r.Post("/accounts/{id}/transfer", s.handleCategoryTransfer)
		r.Post("/accounts/{id}/bonus/grant", s.handleBonusGrant)
		r.Post("/accounts/{id}/bonus/release", s.handleBonusRelease)
		r.Post("/accounts/{id}/bonus/forfeit", s.handleBonusForfeit)
		r.Get("/transfers/orphans", s.handleOrphanTransfers)
	})

	return r
}

// HandleCallback is the provider webhook entry point. The provider contract
// is HTTP 200 with in-band OK/ERROR status; transport-level errors are
// reserved for unreadable requests.
func (s *Server) HandleCallback(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var env provider.CallbackEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		s.respond(w, provider.ErrorResponse(domain.ErrValidation("malformed request body")))
		s.metrics.ObserveCallback("unknown", "malformed", started)
		return
	}

	operatorID := chi.URLParam(r, "operator")
	commandAuth := r.Header.Get("X-Command-Auth")
	if hdr := r.Header.Get("X-Operator-Id"); hdr != "" && hdr != operatorID {
		operatorID = "" // header and path disagree; fail verification
	}

	if err := s.verifier.Verify(operatorID, commandAuth, env.Command, env.RequestTimestamp, env.Hash); err != nil {
		s.logger.Warn("callback signature rejected",
			"operator", operatorID,
			"command", env.Command)
		s.metrics.ObserveAuthRejection()
		s.metrics.ObserveCallback(env.Command, "unauthorized", started)
		s.respond(w, provider.ErrorResponse(err))
		return
	}

	cmd, err := provider.DecodeCommand(&env)
	if err != nil {
		s.metrics.ObserveCallback(env.Command, "rejected", started)
		s.respond(w, provider.ErrorResponse(err))
		return
	}

	resp, err := s.Dispatch(r.Context(), cmd)
	if err != nil {
		s.logger.Error("callback dispatch failed",
			"command", env.Command,
			"error", err)
		s.metrics.ObserveCallback(env.Command, "error", started)
		s.respond(w, provider.ErrorResponse(err))
		return
	}

	s.metrics.ObserveCallback(env.Command, "ok", started)
	s.respond(w, resp)
}

func (s *Server) respond(w http.ResponseWriter, resp provider.ResponseEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
