package guard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	kl := NewKeyLock()

	const n = 50
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := kl.Acquire("acct-1/tx-1")
			defer release()
			// Unsynchronized on purpose; the key lock is the only guard.
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, n, counter)
}

func TestKeyLockDistinctKeysDoNotBlock(t *testing.T) {
	kl := NewKeyLock()

	releaseA := kl.Acquire("acct-1/tx-1")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release := kl.Acquire("acct-2/tx-1")
		release()
		close(done)
	}()

	<-done // returns promptly; a shared lock would deadlock the test
}

func TestKeyLockTableShrinks(t *testing.T) {
	kl := NewKeyLock()

	for i := 0; i < 10; i++ {
		release := kl.Acquire("tx")
		release()
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()
	assert.Empty(t, kl.locks)
}
