package projection

import (
	"context"
	"sync"

	"github.com/user01samiul/jx-backend-sub007/internal/domain"
)

// BalanceView is the mirror's denormalized per-account state.
type BalanceView struct {
	AccountID  string `json:"account_id"`
	Balance    int64  `json:"balance"`
	Currency   string `json:"currency"`
	EntryCount int    `json:"entry_count"`
	Cancelled  int    `json:"cancelled"`
}

// Store is the read-model sink the mirror consumer writes into. Implementations
// must tolerate at-least-once delivery: applying the same entry twice must
// not double count.
type Store interface {
	ApplyEntry(ctx context.Context, payload *domain.EntryEventPayload) error
	ApplyBonus(ctx context.Context, eventType domain.EventType, wallet *domain.BonusWallet) error
	Balance(ctx context.Context, accountID string) (*BalanceView, bool)
	History(ctx context.Context, accountID string) []domain.LedgerEntry
}

// InMemoryStore keeps the projection in process memory. It serves dashboards
// and tests; a durable implementation can replace it behind the same
// interface.
type InMemoryStore struct {
	mu       sync.RWMutex
	balances map[string]*BalanceView
	history  map[string][]domain.LedgerEntry
	seen     map[string]bool // entry IDs, for at-least-once dedup
	bonuses  map[string]*domain.BonusWallet
}

// NewInMemoryStore creates an empty projection store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		balances: make(map[string]*BalanceView),
		history:  make(map[string][]domain.LedgerEntry),
		seen:     make(map[string]bool),
		bonuses:  make(map[string]*domain.BonusWallet),
	}
}

// ApplyEntry folds one ledger entry event into the projection.
func (s *InMemoryStore) ApplyEntry(_ context.Context, payload *domain.EntryEventPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := payload.Entry
	if s.seen[entry.ID.String()] {
		return nil
	}
	s.seen[entry.ID.String()] = true

	accountID := entry.AccountID.String()
	view, ok := s.balances[accountID]
	if !ok {
		view = &BalanceView{AccountID: accountID}
		s.balances[accountID] = view
	}

	view.Balance = payload.Balance
	view.Currency = payload.Currency
	view.EntryCount++
	if entry.Status == domain.EntryCancelled {
		view.Cancelled++
	}

	s.history[accountID] = append(s.history[accountID], *entry)
	return nil
}

// ApplyBonus stores the latest bonus wallet snapshot.
func (s *InMemoryStore) ApplyBonus(_ context.Context, _ domain.EventType, wallet *domain.BonusWallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bonuses[wallet.AccountID.String()] = wallet
	return nil
}

// Balance returns the projected view for an account.
func (s *InMemoryStore) Balance(_ context.Context, accountID string) (*BalanceView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.balances[accountID]
	if !ok {
		return nil, false
	}
	copied := *view
	return &copied, true
}

// History returns the projected entry history for an account, oldest first.
func (s *InMemoryStore) History(_ context.Context, accountID string) []domain.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[accountID]
	out := make([]domain.LedgerEntry, len(entries))
	copy(out, entries)
	return out
}

// BonusWallet returns the latest projected bonus wallet snapshot.
func (s *InMemoryStore) BonusWallet(_ context.Context, accountID string) (*domain.BonusWallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.bonuses[accountID]
	return w, ok
}
