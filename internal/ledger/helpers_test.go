package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrPtr(t *testing.T) {
	assert.Nil(t, strPtr(""))

	p := strPtr("tx-1")
	require.NotNil(t, p)
	assert.Equal(t, "tx-1", *p)
}

func TestEnsureJSON(t *testing.T) {
	assert.Equal(t, json.RawMessage(`{}`), ensureJSON(nil))
	assert.Equal(t, json.RawMessage(`{"a":1}`), ensureJSON(json.RawMessage(`{"a":1}`)))
}

func TestMergeMeta(t *testing.T) {
	t.Run("overlays extra keys onto base", func(t *testing.T) {
		out := mergeMeta(json.RawMessage(`{"roundId":"r-1","mainStake":5}`), map[string]interface{}{
			"mainStake":  int64(3),
			"bonusStake": int64(2),
		})

		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(out, &m))
		assert.Equal(t, "r-1", m["roundId"])
		assert.Equal(t, float64(3), m["mainStake"])
		assert.Equal(t, float64(2), m["bonusStake"])
	})

	t.Run("nil base produces just the extras", func(t *testing.T) {
		out := mergeMeta(nil, map[string]interface{}{"k": "v"})

		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(out, &m))
		assert.Equal(t, map[string]interface{}{"k": "v"}, m)
	})
}

func TestMetaInt64(t *testing.T) {
	var m map[string]interface{}
	require.NoError(t, jsonUnmarshal(json.RawMessage(`{"bonusStake":250,"note":"x"}`), &m))

	assert.Equal(t, int64(250), metaInt64(m, "bonusStake"))
	assert.Equal(t, int64(0), metaInt64(m, "missing"))
	assert.Equal(t, int64(0), metaInt64(m, "note"))
}

func TestJSONUnmarshalNil(t *testing.T) {
	var m map[string]interface{}
	assert.Error(t, jsonUnmarshal(nil, &m))
}
