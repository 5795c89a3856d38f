//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user01samiul/jx-backend-sub007/internal/provider"
	"github.com/user01samiul/jx-backend-sub007/test/integration/testutil"
)

type bonusWalletRow struct {
	Locked      int64
	Playable    int64
	Received    int64
	Wagered     int64
	Released    int64
	Forfeited   int64
	ActiveCount int
}

func readBonusWallet(t *testing.T, env *testutil.WalletTestEnv, accountID uuid.UUID) bonusWalletRow {
	t.Helper()
	var row bonusWalletRow
	err := env.Pool.QueryRow(context.Background(), `
		SELECT locked_balance::bigint, playable_balance::bigint, total_received::bigint,
		       total_wagered::bigint, total_released::bigint, total_forfeited::bigint,
		       active_bonus_count
		FROM bonus_wallets WHERE account_id = $1`, accountID).
		Scan(&row.Locked, &row.Playable, &row.Received, &row.Wagered,
			&row.Released, &row.Forfeited, &row.ActiveCount)
	require.NoError(t, err)
	return row
}

func grantBonus(t *testing.T, env *testutil.WalletTestEnv, accountID uuid.UUID, amount int64, multiplier float64, ref string) uuid.UUID {
	t.Helper()
	status, body := env.InternalPost("/internal/accounts/"+accountID.String()+"/bonus/grant", map[string]interface{}{
		"amount":              amount,
		"wagering_multiplier": multiplier,
		"external_reference":  ref,
	})
	require.Equal(t, http.StatusOK, status, string(body))

	var result struct {
		Entry struct {
			Metadata map[string]interface{} `json:"metadata"`
		} `json:"Entry"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	instanceID, err := uuid.Parse(result.Entry.Metadata["bonusInstanceId"].(string))
	require.NoError(t, err)
	return instanceID
}

func TestBonusLifecycleReleases(t *testing.T) {
	env := testutil.NewWalletTestEnv(t)
	accountID := env.CreateAccount("USD")
	env.DirectDeposit(accountID, 100_00)

	// 5.00 bonus, 2x wagering: 10.00 of bonus-funded stakes completes it.
	instanceID := grantBonus(t, env, accountID, 5_00, 2.0, "bonus-grant-1")

	wallet := readBonusWallet(t, env, accountID)
	assert.Equal(t, int64(5_00), wallet.Playable)
	assert.Equal(t, int64(0), wallet.Locked)
	assert.Equal(t, 1, wallet.ActiveCount)

	// Stakes draw playable-first; main is untouched while bonus covers them.
	for i, txID := range []string{"b-bet-1", "b-bet-2"} {
		resp := env.CallbackPost(provider.CmdChangeBalance, map[string]interface{}{
			"user_id":          accountID.String(),
			"transaction_id":   txID,
			"transaction_type": "BET",
			"amount":           "-2.00",
			"currency_code":    "USD",
		})
		require.Equal(t, "OK", resp.Response.Status, "stake %d", i)
		assert.Equal(t, "100.00", resp.Response.Data.Balance)
	}

	wallet = readBonusWallet(t, env, accountID)
	assert.Equal(t, int64(1_00), wallet.Playable)
	assert.Equal(t, int64(4_00), wallet.Wagered)

	// Wins credit playable while the bonus is active.
	resp := env.CallbackPost(provider.CmdChangeBalance, map[string]interface{}{
		"user_id":          accountID.String(),
		"transaction_id":   "b-win-1",
		"transaction_type": "WIN",
		"amount":           "7.00",
		"currency_code":    "USD",
	})
	require.Equal(t, "OK", resp.Response.Status)
	assert.Equal(t, "100.00", resp.Response.Data.Balance)

	wallet = readBonusWallet(t, env, accountID)
	assert.Equal(t, int64(8_00), wallet.Playable)

	// 6.00 more wagering completes the 10.00 requirement; the instance's
	// remaining value locks, waiting for release.
	resp = env.CallbackPost(provider.CmdChangeBalance, map[string]interface{}{
		"user_id":          accountID.String(),
		"transaction_id":   "b-bet-3",
		"transaction_type": "BET",
		"amount":           "-6.00",
		"currency_code":    "USD",
	})
	require.Equal(t, "OK", resp.Response.Status)

	wallet = readBonusWallet(t, env, accountID)
	assert.Equal(t, 0, wallet.ActiveCount)
	assert.Equal(t, int64(2_00), wallet.Locked) // min(remaining 5.00, playable 2.00)
	assert.Equal(t, int64(0), wallet.Playable)
	assert.Equal(t, int64(10_00), wallet.Wagered)

	// Release converts locked into withdrawable main funds.
	status, body := env.InternalPost("/internal/accounts/"+accountID.String()+"/bonus/release", map[string]interface{}{
		"instance_id":        instanceID.String(),
		"external_reference": "bonus-release-1",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	assert.Equal(t, int64(102_00), env.GetBalance(accountID))

	wallet = readBonusWallet(t, env, accountID)
	assert.Equal(t, int64(0), wallet.Locked)
	assert.Equal(t, int64(2_00), wallet.Released)

	report := env.Audit(accountID)
	assert.True(t, report.Clean(), "audit violations: %v", report.Violations)
}

func TestBonusForfeitNeverTouchesMain(t *testing.T) {
	env := testutil.NewWalletTestEnv(t)
	accountID := env.CreateAccount("USD")
	env.DirectDeposit(accountID, 50_00)

	instanceID := grantBonus(t, env, accountID, 10_00, 3.0, "bonus-grant-f")

	status, body := env.InternalPost("/internal/accounts/"+accountID.String()+"/bonus/forfeit", map[string]interface{}{
		"instance_id":        instanceID.String(),
		"external_reference": "bonus-forfeit-1",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	assert.Equal(t, int64(50_00), env.GetBalance(accountID))

	wallet := readBonusWallet(t, env, accountID)
	assert.Equal(t, int64(0), wallet.Playable)
	assert.Equal(t, int64(0), wallet.Locked)
	assert.Equal(t, int64(10_00), wallet.Forfeited)
	assert.Equal(t, 0, wallet.ActiveCount)

	report := env.Audit(accountID)
	assert.True(t, report.Clean(), "audit violations: %v", report.Violations)
}

func TestBonusSplitStakeRecordedInMetadata(t *testing.T) {
	env := testutil.NewWalletTestEnv(t)
	accountID := env.CreateAccount("USD")
	env.DirectDeposit(accountID, 50_00)

	grantBonus(t, env, accountID, 1_00, 10.0, "bonus-grant-s")

	// 3.00 stake: 1.00 from the bonus, 2.00 from main.
	resp := env.CallbackPost(provider.CmdChangeBalance, map[string]interface{}{
		"user_id":          accountID.String(),
		"transaction_id":   "split-bet-1",
		"transaction_type": "BET",
		"amount":           "-3.00",
		"currency_code":    "USD",
	})
	require.Equal(t, "OK", resp.Response.Status)
	assert.Equal(t, "48.00", resp.Response.Data.Balance)

	var meta map[string]interface{}
	err := env.Pool.QueryRow(context.Background(), `
		SELECT metadata FROM ledger_entries
		WHERE account_id = $1 AND external_reference = 'split-bet-1'`, accountID).Scan(&meta)
	require.NoError(t, err)
	assert.Equal(t, float64(1_00), meta["bonusStake"])
	assert.Equal(t, float64(2_00), meta["mainStake"])

	// Cancelling the stake restores both halves of the split.
	cancelResp := env.CallbackPost(provider.CmdCancel, map[string]interface{}{
		"user_id":        accountID.String(),
		"transaction_id": "split-bet-1",
	})
	require.Equal(t, "OK", cancelResp.Response.Status)
	assert.Equal(t, int64(50_00), env.GetBalance(accountID))

	wallet := readBonusWallet(t, env, accountID)
	assert.Equal(t, int64(1_00), wallet.Playable)
}
