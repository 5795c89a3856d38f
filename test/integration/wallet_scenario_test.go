//go:build integration

package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user01samiul/jx-backend-sub007/internal/provider"
	"github.com/user01samiul/jx-backend-sub007/test/integration/testutil"
)

// TestRoundWithCancelledStakes walks a full provider round against one
// account: two stakes and a payout land, then both stakes are cancelled.
// Each cancel restores exactly one stake; the payout stays.
//
//	50.00 - 0.20 - 0.20 + 0.12 + 0.20 + 0.20 = 50.12
func TestRoundWithCancelledStakes(t *testing.T) {
	env := testutil.NewWalletTestEnv(t)
	accountID := env.CreateAccount("USD")
	env.DirectDeposit(accountID, 5000)

	changebalance := func(txID, txType, amount string) provider.ResponseEnvelope {
		return env.CallbackPost(provider.CmdChangeBalance, map[string]interface{}{
			"user_id":          accountID.String(),
			"transaction_id":   txID,
			"transaction_type": txType,
			"amount":           amount,
			"round_id":         "round-1",
			"currency_code":    "USD",
		})
	}
	cancel := func(txID string) provider.ResponseEnvelope {
		return env.CallbackPost(provider.CmdCancel, map[string]interface{}{
			"user_id":        accountID.String(),
			"transaction_id": txID,
		})
	}

	resp := changebalance("tx-stake-1", "BET", "-0.20")
	require.Equal(t, "OK", resp.Response.Status, resp.Response.ErrorMessage)
	assert.Equal(t, "49.80", resp.Response.Data.Balance)

	resp = changebalance("tx-stake-2", "BET", "-0.20")
	require.Equal(t, "OK", resp.Response.Status)
	assert.Equal(t, "49.60", resp.Response.Data.Balance)

	resp = changebalance("tx-win-1", "WIN", "0.12")
	require.Equal(t, "OK", resp.Response.Status)
	assert.Equal(t, "49.72", resp.Response.Data.Balance)

	resp = cancel("tx-stake-1")
	require.Equal(t, "OK", resp.Response.Status, resp.Response.ErrorMessage)
	assert.Equal(t, "49.92", resp.Response.Data.Balance)

	resp = cancel("tx-stake-2")
	require.Equal(t, "OK", resp.Response.Status)
	assert.Equal(t, "50.12", resp.Response.Data.Balance)

	assert.Equal(t, int64(5012), env.GetBalance(accountID))
	assert.Equal(t, "cancelled", env.EntryStatus(accountID, "tx-stake-1"))
	assert.Equal(t, "cancelled", env.EntryStatus(accountID, "tx-stake-2"))
	assert.Equal(t, "completed", env.EntryStatus(accountID, "tx-win-1"))

	// deposit + 3 round entries + 2 reversals
	assert.Equal(t, 6, env.CountEntries(accountID))

	// The completed sum reconstructs the balance exactly.
	report := env.Audit(accountID)
	assert.True(t, report.Clean(), "audit violations: %v", report.Violations)
}

func TestBalanceCommand(t *testing.T) {
	env := testutil.NewWalletTestEnv(t)
	accountID := env.CreateAccount("EUR")
	env.DirectDeposit(accountID, 12345)

	resp := env.CallbackPost(provider.CmdBalance, map[string]interface{}{
		"user_id":       accountID.String(),
		"currency_code": "EUR",
	})
	require.Equal(t, "OK", resp.Response.Status)
	assert.Equal(t, "123.45", resp.Response.Data.Balance)
	assert.Equal(t, "EUR", resp.Response.Data.Currency)
}

func TestCallbackRejectsBadSignature(t *testing.T) {
	env := testutil.NewWalletTestEnv(t)
	accountID := env.CreateAccount("USD")
	env.DirectDeposit(accountID, 5000)

	resp := env.CallbackPostBadSig(provider.CmdChangeBalance, map[string]interface{}{
		"user_id":          accountID.String(),
		"transaction_id":   "tx-evil",
		"transaction_type": "BET",
		"amount":           "-10.00",
		"currency_code":    "USD",
	})
	assert.Equal(t, "ERROR", resp.Response.Status)

	// Fails closed: no mutation happened.
	assert.Equal(t, int64(5000), env.GetBalance(accountID))
	assert.Equal(t, 1, env.CountEntries(accountID)) // only the deposit
}

func TestChangeBalanceSignTypeMismatch(t *testing.T) {
	env := testutil.NewWalletTestEnv(t)
	accountID := env.CreateAccount("USD")
	env.DirectDeposit(accountID, 5000)

	resp := env.CallbackPost(provider.CmdChangeBalance, map[string]interface{}{
		"user_id":          accountID.String(),
		"transaction_id":   "tx-bad",
		"transaction_type": "BET",
		"amount":           "0.20", // positive amount on a BET
		"currency_code":    "USD",
	})
	assert.Equal(t, "ERROR", resp.Response.Status)
	assert.Equal(t, int64(5000), env.GetBalance(accountID))
}

func TestUnknownCommandRejected(t *testing.T) {
	env := testutil.NewWalletTestEnv(t)
	accountID := env.CreateAccount("USD")

	resp := env.CallbackPost("selfexclude", map[string]interface{}{
		"user_id": accountID.String(),
	})
	assert.Equal(t, "ERROR", resp.Response.Status)
}

func TestInsufficientFunds(t *testing.T) {
	env := testutil.NewWalletTestEnv(t)
	accountID := env.CreateAccount("USD")
	env.DirectDeposit(accountID, 10)

	resp := env.CallbackPost(provider.CmdChangeBalance, map[string]interface{}{
		"user_id":          accountID.String(),
		"transaction_id":   "tx-big",
		"transaction_type": "BET",
		"amount":           "-0.50",
		"currency_code":    "USD",
	})
	assert.Equal(t, "ERROR", resp.Response.Status)
	assert.Equal(t, "insufficient funds", resp.Response.ErrorMessage)
	assert.Equal(t, int64(10), env.GetBalance(accountID))
}
