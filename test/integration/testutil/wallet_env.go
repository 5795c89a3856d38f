//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user01samiul/jx-backend-sub007/internal/auth"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
	"github.com/user01samiul/jx-backend-sub007/internal/ledger"
	"github.com/user01samiul/jx-backend-sub007/internal/provider"
	"github.com/user01samiul/jx-backend-sub007/internal/repository"
	"github.com/user01samiul/jx-backend-sub007/internal/walletserver"
)

var (
	metricsOnce   sync.Once
	sharedMetrics *walletserver.Metrics
)

// WalletTestEnv holds resources for wallet server integration tests.
type WalletTestEnv struct {
	Server   *httptest.Server
	Pool     *pgxpool.Pool
	Engine   *ledger.Engine
	Verifier *provider.Verifier
	JWTMgr   *auth.JWTManager
	t        *testing.T
}

// NewWalletTestEnv creates a test environment backed by the real router and
// the shared test database.
func NewWalletTestEnv(t *testing.T) *WalletTestEnv {
	t.Helper()

	pool := getSharedPool(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	eng := ledger.NewEngine(
		repository.NewAccountRepository(),
		repository.NewCategoryRepository(),
		repository.NewEntryRepository(),
		repository.NewBonusRepository(),
		repository.NewOutboxRepository(),
	)

	verifier := provider.NewVerifier(TestOperatorID, TestOperatorSecret)
	jwtMgr := auth.NewJWTManager(TestJWTSecret, time.Hour)

	metricsOnce.Do(func() { sharedMetrics = walletserver.NewMetrics() })

	server := walletserver.NewServer(pool, eng, verifier, sharedMetrics, logger)
	router := walletserver.NewRouter(server, jwtMgr)
	httpServer := httptest.NewServer(router)

	env := &WalletTestEnv{
		Server:   httpServer,
		Pool:     pool,
		Engine:   eng,
		Verifier: verifier,
		JWTMgr:   jwtMgr,
		t:        t,
	}

	t.Cleanup(func() {
		httpServer.Close()
		env.CleanAll()
	})

	env.CleanAll()
	return env
}

// CleanAll truncates all wallet tables.
func (env *WalletTestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tables := []string{
		"event_outbox",
		"bonus_instances",
		"bonus_wallets",
		"ledger_entries",
		"category_balances",
		"accounts",
	}
	for _, table := range tables {
		_, _ = env.Pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
	}
}

// CreateAccount inserts an account at zero balance and returns its ID.
func (env *WalletTestEnv) CreateAccount(currency string) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	accountID := uuid.New()
	_, err := env.Pool.Exec(ctx,
		"INSERT INTO accounts (id, balance, currency) VALUES ($1, 0, $2)", accountID, currency)
	if err != nil {
		env.t.Fatalf("CreateAccount: %v", err)
	}
	return accountID
}

// DirectDeposit funds an account through the real adjustment path, so
// conservation over completed entries keeps holding in tests.
func (env *WalletTestEnv) DirectDeposit(accountID uuid.UUID, amountCents int64) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := env.Pool.Begin(ctx)
	if err != nil {
		env.t.Fatalf("DirectDeposit: begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	_, err = env.Engine.ExecuteAdjustment(ctx, tx, domain.AdjustmentParams{
		AccountID:         accountID,
		Amount:            amountCents,
		ExternalReference: fmt.Sprintf("test_dep_%s", uuid.New().String()[:8]),
	})
	if err != nil {
		env.t.Fatalf("DirectDeposit: adjustment: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		env.t.Fatalf("DirectDeposit: commit: %v", err)
	}
}

// GetBalance reads the current main balance for an account.
func (env *WalletTestEnv) GetBalance(accountID uuid.UUID) int64 {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var balance int64
	err := env.Pool.QueryRow(ctx,
		"SELECT balance::bigint FROM accounts WHERE id = $1", accountID).Scan(&balance)
	if err != nil {
		env.t.Fatalf("GetBalance: %v", err)
	}
	return balance
}

// EntryStatus reads the status of the entry with the given reference.
func (env *WalletTestEnv) EntryStatus(accountID uuid.UUID, reference string) string {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var status string
	err := env.Pool.QueryRow(ctx,
		"SELECT status FROM ledger_entries WHERE account_id = $1 AND external_reference = $2",
		accountID, reference).Scan(&status)
	if err != nil {
		env.t.Fatalf("EntryStatus(%s): %v", reference, err)
	}
	return status
}

// CountEntries counts ledger entries for an account.
func (env *WalletTestEnv) CountEntries(accountID uuid.UUID) int {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT count(*) FROM ledger_entries WHERE account_id = $1", accountID).Scan(&count)
	if err != nil {
		env.t.Fatalf("CountEntries: %v", err)
	}
	return count
}

// Audit runs the engine's invariant sweep for an account.
func (env *WalletTestEnv) Audit(accountID uuid.UUID) *ledger.AuditReport {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := env.Engine.AuditAccount(ctx, env.Pool, accountID)
	if err != nil {
		env.t.Fatalf("Audit: %v", err)
	}
	return report
}

// CallbackPost sends a correctly signed callback envelope and returns the
// decoded response.
func (env *WalletTestEnv) CallbackPost(command string, data map[string]interface{}) provider.ResponseEnvelope {
	env.t.Helper()

	ts := time.Now().Unix()
	rawData, err := json.Marshal(data)
	if err != nil {
		env.t.Fatalf("CallbackPost: marshal data: %v", err)
	}

	envelope := provider.CallbackEnvelope{
		Command:          command,
		RequestTimestamp: strconv.FormatInt(ts, 10),
		Hash:             env.Verifier.RequestHash(command, ts),
		Data:             rawData,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		env.t.Fatalf("CallbackPost: marshal envelope: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost,
		env.Server.URL+"/callback/"+TestOperatorID, bytes.NewReader(body))
	if err != nil {
		env.t.Fatalf("CallbackPost: new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Operator-Id", TestOperatorID)
	req.Header.Set("X-Command-Auth", env.Verifier.CommandHash(command))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("CallbackPost: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("CallbackPost: unexpected http status %d", resp.StatusCode)
	}

	var decoded provider.ResponseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		env.t.Fatalf("CallbackPost: decode response: %v", err)
	}
	return decoded
}

// CallbackPostBadSig sends a callback with a bogus request hash.
func (env *WalletTestEnv) CallbackPostBadSig(command string, data map[string]interface{}) provider.ResponseEnvelope {
	env.t.Helper()

	rawData, _ := json.Marshal(data)
	envelope := provider.CallbackEnvelope{
		Command:          command,
		RequestTimestamp: strconv.FormatInt(time.Now().Unix(), 10),
		Hash:             "bad-signature",
		Data:             rawData,
	}
	body, _ := json.Marshal(envelope)

	req, _ := http.NewRequest(http.MethodPost,
		env.Server.URL+"/callback/"+TestOperatorID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Operator-Id", TestOperatorID)
	req.Header.Set("X-Command-Auth", env.Verifier.CommandHash(command))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("CallbackPostBadSig: %v", err)
	}
	defer resp.Body.Close()

	var decoded provider.ResponseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		env.t.Fatalf("CallbackPostBadSig: decode response: %v", err)
	}
	return decoded
}

// InternalPost sends an authenticated internal API request and returns the
// raw response body with its status code.
func (env *WalletTestEnv) InternalPost(path string, payload interface{}) (int, []byte) {
	env.t.Helper()
	return env.internalRequest(http.MethodPost, path, payload)
}

// InternalGet sends an authenticated internal API GET.
func (env *WalletTestEnv) InternalGet(path string) (int, []byte) {
	env.t.Helper()
	return env.internalRequest(http.MethodGet, path, nil)
}

func (env *WalletTestEnv) internalRequest(method, path string, payload interface{}) (int, []byte) {
	env.t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			env.t.Fatalf("internalRequest: marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, env.Server.URL+path, body)
	if err != nil {
		env.t.Fatalf("internalRequest: new request: %v", err)
	}
	token, err := env.JWTMgr.GenerateServiceToken("integration-tests")
	if err != nil {
		env.t.Fatalf("internalRequest: token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("internalRequest: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		env.t.Fatalf("internalRequest: read body: %v", err)
	}
	return resp.StatusCode, raw
}
