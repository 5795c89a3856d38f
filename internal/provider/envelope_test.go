package provider

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

func testEnvelope(command string, data map[string]interface{}) *CallbackEnvelope {
	raw, _ := json.Marshal(data)
	return &CallbackEnvelope{
		Command:          command,
		RequestTimestamp: "1700000000",
		Hash:             "irrelevant-here",
		Data:             raw,
	}
}

func TestDecodeCommand(t *testing.T) {
	accountID := uuid.New()

	t.Run("balance", func(t *testing.T) {
		cmd, err := DecodeCommand(testEnvelope(CmdBalance, map[string]interface{}{
			"user_id":       accountID.String(),
			"currency_code": "USD",
		}))
		require.NoError(t, err)

		bal, ok := cmd.(BalanceCommand)
		require.True(t, ok)
		assert.Equal(t, accountID, bal.AccountID)
		assert.Equal(t, "USD", bal.Currency)
	})

	t.Run("changebalance bet", func(t *testing.T) {
		cmd, err := DecodeCommand(testEnvelope(CmdChangeBalance, map[string]interface{}{
			"user_id":          accountID.String(),
			"transaction_id":   "tx-1",
			"transaction_type": "BET",
			"amount":           "-0.20",
			"round_id":         "round-9",
			"currency_code":    "USD",
		}))
		require.NoError(t, err)

		cb, ok := cmd.(ChangeBalanceCommand)
		require.True(t, ok)
		assert.Equal(t, int64(-20), cb.Amount)
		assert.Equal(t, TxTypeBet, cb.TransactionType)
		assert.Equal(t, "tx-1", cb.TransactionID)
		assert.Equal(t, "round-9", cb.RoundID)
	})

	t.Run("changebalance win", func(t *testing.T) {
		cmd, err := DecodeCommand(testEnvelope(CmdChangeBalance, map[string]interface{}{
			"user_id":          accountID.String(),
			"transaction_id":   "tx-2",
			"transaction_type": "WIN",
			"amount":           "0.12",
			"currency_code":    "USD",
		}))
		require.NoError(t, err)

		cb := cmd.(ChangeBalanceCommand)
		assert.Equal(t, int64(12), cb.Amount)
	})

	t.Run("cancel", func(t *testing.T) {
		cmd, err := DecodeCommand(testEnvelope(CmdCancel, map[string]interface{}{
			"user_id":        accountID.String(),
			"transaction_id": "tx-1",
		}))
		require.NoError(t, err)

		c, ok := cmd.(CancelCommand)
		require.True(t, ok)
		assert.Equal(t, "tx-1", c.TransactionID)
	})

	t.Run("unknown command rejected", func(t *testing.T) {
		_, err := DecodeCommand(testEnvelope("selfexclude", map[string]interface{}{
			"user_id": accountID.String(),
		}))
		assertAppErrCode(t, err, "UNSUPPORTED_COMMAND")
	})

	t.Run("invalid user id rejected", func(t *testing.T) {
		_, err := DecodeCommand(testEnvelope(CmdBalance, map[string]interface{}{
			"user_id": "player-7",
		}))
		assertAppErrCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("missing transaction id rejected", func(t *testing.T) {
		_, err := DecodeCommand(testEnvelope(CmdCancel, map[string]interface{}{
			"user_id": accountID.String(),
		}))
		assertAppErrCode(t, err, "VALIDATION_ERROR")
	})
}

func TestTypeSignAgreement(t *testing.T) {
	accountID := uuid.New()

	cases := []struct {
		txType   string
		amount   string
		wantCode string
	}{
		{"BET", "-0.20", ""},
		{"BET", "0.20", "INCONSISTENT_OPERATION"},
		{"BET", "0", "INCONSISTENT_OPERATION"},
		{"WIN", "0.12", ""},
		{"WIN", "-0.12", "INCONSISTENT_OPERATION"},
		{"ADJUSTMENT", "-5.00", ""},
		{"ADJUSTMENT", "5.00", ""},
		{"ADJUSTMENT", "0.00", "INCONSISTENT_OPERATION"},
		{"REFUND", "1.00", "VALIDATION_ERROR"},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s %s", tc.txType, tc.amount), func(t *testing.T) {
			_, err := DecodeCommand(testEnvelope(CmdChangeBalance, map[string]interface{}{
				"user_id":          accountID.String(),
				"transaction_id":   "tx-x",
				"transaction_type": tc.txType,
				"amount":           tc.amount,
				"currency_code":    "USD",
			}))
			if tc.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assertAppErrCode(t, err, tc.wantCode)
		})
	}
}

func TestResponseEnvelopes(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		env := OKResponse(5012, "USD", "tx-1")
		assert.Equal(t, "OK", env.Response.Status)
		require.NotNil(t, env.Response.Data)
		assert.Equal(t, "50.12", env.Response.Data.Balance)
		assert.Equal(t, "USD", env.Response.Data.Currency)
		assert.Equal(t, "tx-1", env.Response.Data.TransactionID)
	})

	t.Run("error carries taxonomy message only", func(t *testing.T) {
		env := ErrorResponse(domain.ErrInsufficientFunds())
		assert.Equal(t, "ERROR", env.Response.Status)
		assert.Nil(t, env.Response.Data)
		assert.Equal(t, "insufficient funds", env.Response.ErrorMessage)
	})

	t.Run("unknown error stays opaque", func(t *testing.T) {
		env := ErrorResponse(fmt.Errorf("pq: connection reset"))
		assert.Equal(t, "internal error", env.Response.ErrorMessage)
	})
}

func assertAppErrCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, code, appErr.Code)
}
