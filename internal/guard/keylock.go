package guard

import "sync"

// KeyLock serializes work per idempotency key inside one process. Two
// concurrent replays of the same provider transaction id queue here instead
// of both opening database transactions and contending on the account row.
// It is only an optimization; the in-transaction idempotency check remains
// the source of truth.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*keyEntry
}

type keyEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyLock creates an empty per-key lock table.
func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*keyEntry)}
}

// Acquire blocks until the key is exclusively held and returns the release
// function. Entries are reference counted so the table does not grow with
// the number of distinct keys ever seen.
func (kl *KeyLock) Acquire(key string) (release func()) {
	kl.mu.Lock()
	entry, ok := kl.locks[key]
	if !ok {
		entry = &keyEntry{}
		kl.locks[key] = entry
	}
	entry.refs++
	kl.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		kl.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(kl.locks, key)
		}
		kl.mu.Unlock()
	}
}
