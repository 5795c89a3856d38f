package provider

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

func TestVerifier(t *testing.T) {
	v := NewVerifier("op-1", "test-secret")
	ts := int64(1700000000)
	rawTS := strconv.FormatInt(ts, 10)

	validAuth := v.CommandHash(CmdChangeBalance)
	validHash := v.RequestHash(CmdChangeBalance, ts)

	t.Run("accepts valid credentials", func(t *testing.T) {
		err := v.Verify("op-1", validAuth, CmdChangeBalance, rawTS, validHash)
		assert.NoError(t, err)
	})

	t.Run("rejects wrong operator", func(t *testing.T) {
		err := v.Verify("op-2", validAuth, CmdChangeBalance, rawTS, validHash)
		assertUnauthorized(t, err)
	})

	t.Run("rejects tampered command auth", func(t *testing.T) {
		err := v.Verify("op-1", v.CommandHash(CmdBalance), CmdChangeBalance, rawTS, validHash)
		assertUnauthorized(t, err)
	})

	t.Run("rejects request hash for another timestamp", func(t *testing.T) {
		err := v.Verify("op-1", validAuth, CmdChangeBalance, rawTS, v.RequestHash(CmdChangeBalance, ts+1))
		assertUnauthorized(t, err)
	})

	t.Run("rejects malformed timestamp", func(t *testing.T) {
		err := v.Verify("op-1", validAuth, CmdChangeBalance, "not-a-number", validHash)
		assertUnauthorized(t, err)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		assertUnauthorized(t, v.Verify("", validAuth, CmdChangeBalance, rawTS, validHash))
		assertUnauthorized(t, v.Verify("op-1", "", CmdChangeBalance, rawTS, validHash))
		assertUnauthorized(t, v.Verify("op-1", validAuth, "", rawTS, validHash))
		assertUnauthorized(t, v.Verify("op-1", validAuth, CmdChangeBalance, rawTS, ""))
	})

	t.Run("different secrets produce different hashes", func(t *testing.T) {
		other := NewVerifier("op-1", "other-secret")
		assert.NotEqual(t, v.CommandHash(CmdBalance), other.CommandHash(CmdBalance))
		err := v.Verify("op-1", other.CommandHash(CmdChangeBalance), CmdChangeBalance, rawTS, validHash)
		assertUnauthorized(t, err)
	})
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}
