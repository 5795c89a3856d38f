//go:build integration

package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user01samiul/jx-backend-sub007/internal/provider"
	"github.com/user01samiul/jx-backend-sub007/test/integration/testutil"
)

func TestChangeBalanceReplayIsIdempotent(t *testing.T) {
	env := testutil.NewWalletTestEnv(t)
	accountID := env.CreateAccount("USD")
	env.DirectDeposit(accountID, 5000)

	payload := map[string]interface{}{
		"user_id":          accountID.String(),
		"transaction_id":   "tx-replay",
		"transaction_type": "BET",
		"amount":           "-1.00",
		"currency_code":    "USD",
	}

	first := env.CallbackPost(provider.CmdChangeBalance, payload)
	require.Equal(t, "OK", first.Response.Status)
	assert.Equal(t, "49.00", first.Response.Data.Balance)

	// At-least-once delivery: identical retries answer with the stored
	// snapshot and never re-apply the amount.
	for i := 0; i < 3; i++ {
		replay := env.CallbackPost(provider.CmdChangeBalance, payload)
		require.Equal(t, "OK", replay.Response.Status)
		assert.Equal(t, "49.00", replay.Response.Data.Balance)
	}

	assert.Equal(t, int64(4900), env.GetBalance(accountID))
	assert.Equal(t, 2, env.CountEntries(accountID)) // deposit + one stake
}

func TestDoubleCancelReplaysFirstReversal(t *testing.T) {
	env := testutil.NewWalletTestEnv(t)
	accountID := env.CreateAccount("USD")
	env.DirectDeposit(accountID, 5000)

	stake := map[string]interface{}{
		"user_id":          accountID.String(),
		"transaction_id":   "tx-once",
		"transaction_type": "BET",
		"amount":           "-2.00",
		"currency_code":    "USD",
	}
	require.Equal(t, "OK", env.CallbackPost(provider.CmdChangeBalance, stake).Response.Status)

	cancelPayload := map[string]interface{}{
		"user_id":        accountID.String(),
		"transaction_id": "tx-once",
	}

	first := env.CallbackPost(provider.CmdCancel, cancelPayload)
	require.Equal(t, "OK", first.Response.Status)
	assert.Equal(t, "50.00", first.Response.Data.Balance)

	second := env.CallbackPost(provider.CmdCancel, cancelPayload)
	require.Equal(t, "OK", second.Response.Status)
	assert.Equal(t, "50.00", second.Response.Data.Balance)

	// Exactly one reversal was written.
	assert.Equal(t, int64(5000), env.GetBalance(accountID))
	assert.Equal(t, 3, env.CountEntries(accountID)) // deposit + stake + one reversal
}

func TestCancelUnknownTransaction(t *testing.T) {
	env := testutil.NewWalletTestEnv(t)
	accountID := env.CreateAccount("USD")
	env.DirectDeposit(accountID, 5000)

	resp := env.CallbackPost(provider.CmdCancel, map[string]interface{}{
		"user_id":        accountID.String(),
		"transaction_id": "tx-never-seen",
	})
	assert.Equal(t, "ERROR", resp.Response.Status)
	assert.Contains(t, resp.Response.ErrorMessage, "not found")
	assert.Equal(t, int64(5000), env.GetBalance(accountID))
}

func TestCancelOfReversalRejected(t *testing.T) {
	env := testutil.NewWalletTestEnv(t)
	accountID := env.CreateAccount("USD")
	env.DirectDeposit(accountID, 5000)

	stake := map[string]interface{}{
		"user_id":          accountID.String(),
		"transaction_id":   "tx-orig",
		"transaction_type": "BET",
		"amount":           "-1.00",
		"currency_code":    "USD",
	}
	require.Equal(t, "OK", env.CallbackPost(provider.CmdChangeBalance, stake).Response.Status)
	require.Equal(t, "OK", env.CallbackPost(provider.CmdCancel, map[string]interface{}{
		"user_id":        accountID.String(),
		"transaction_id": "tx-orig",
	}).Response.Status)

	// Attempting to cancel the reversal itself must fail; its reference uses
	// a reserved suffix that never belongs to a provider transaction.
	resp := env.CallbackPost(provider.CmdCancel, map[string]interface{}{
		"user_id":        accountID.String(),
		"transaction_id": "tx-orig:cancel",
	})
	assert.Equal(t, "ERROR", resp.Response.Status)
	assert.Equal(t, int64(5000), env.GetBalance(accountID))
}
