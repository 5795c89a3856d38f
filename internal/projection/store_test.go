package projection

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

func entryPayload(accountID uuid.UUID, entryID uuid.UUID, amount, balance int64, status domain.EntryStatus) *domain.EntryEventPayload {
	return &domain.EntryEventPayload{
		Entry: &domain.LedgerEntry{
			ID:        entryID,
			AccountID: accountID,
			Kind:      domain.KindStake,
			Amount:    amount,
			Status:    status,
		},
		Balance:  balance,
		Currency: "USD",
	}
}

func TestInMemoryStoreApplyEntry(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	accountID := uuid.New()

	require.NoError(t, store.ApplyEntry(ctx, entryPayload(accountID, uuid.New(), -20, 4980, domain.EntryCompleted)))
	require.NoError(t, store.ApplyEntry(ctx, entryPayload(accountID, uuid.New(), 12, 4992, domain.EntryCompleted)))

	view, ok := store.Balance(ctx, accountID.String())
	require.True(t, ok)
	assert.Equal(t, int64(4992), view.Balance)
	assert.Equal(t, "USD", view.Currency)
	assert.Equal(t, 2, view.EntryCount)
	assert.Equal(t, 0, view.Cancelled)

	assert.Len(t, store.History(ctx, accountID.String()), 2)
}

func TestInMemoryStoreDedupsRedelivery(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	accountID := uuid.New()
	entryID := uuid.New()

	payload := entryPayload(accountID, entryID, -20, 4980, domain.EntryCompleted)
	require.NoError(t, store.ApplyEntry(ctx, payload))
	require.NoError(t, store.ApplyEntry(ctx, payload))

	view, ok := store.Balance(ctx, accountID.String())
	require.True(t, ok)
	assert.Equal(t, 1, view.EntryCount)
	assert.Len(t, store.History(ctx, accountID.String()), 1)
}

func TestInMemoryStoreCountsCancelled(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	accountID := uuid.New()

	require.NoError(t, store.ApplyEntry(ctx, entryPayload(accountID, uuid.New(), 20, 5000, domain.EntryCancelled)))

	view, ok := store.Balance(ctx, accountID.String())
	require.True(t, ok)
	assert.Equal(t, 1, view.Cancelled)
}

func TestInMemoryStoreUnknownAccount(t *testing.T) {
	store := NewInMemoryStore()
	_, ok := store.Balance(context.Background(), uuid.New().String())
	assert.False(t, ok)
}

func TestInMemoryStoreBonusSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	accountID := uuid.New()

	wallet := &domain.BonusWallet{AccountID: accountID, PlayableBalance: 500, TotalReceived: 500}
	require.NoError(t, store.ApplyBonus(ctx, domain.EventBonusGranted, wallet))

	got, ok := store.BonusWallet(ctx, accountID.String())
	require.True(t, ok)
	assert.Equal(t, int64(500), got.PlayableBalance)
}
