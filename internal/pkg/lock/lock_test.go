package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestConcurrentBalanceSafety checks that concurrent read-modify-write
// operations guarded by the same key serialize to a sequentially consistent
// result.
func TestConcurrentBalanceSafety(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initialBalance := rapid.Int64Range(1000, 100000).Draw(t, "initialBalance")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")

		amounts := make([]int64, numOps)
		expected := initialBalance
		for i := 0; i < numOps; i++ {
			amounts[i] = rapid.Int64Range(-500, 500).Draw(t, "amount")
			expected += amounts[i]
		}

		playerID := rapid.Int64Range(1, 1000000).Draw(t, "playerID")
		key := WalletKey(playerID)

		kl := NewKeyLock()
		balance := initialBalance

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(amount int64) {
				defer wg.Done()
				kl.Lock(key)
				defer kl.Unlock(key)
				current := balance
				balance = current + amount
			}(amount)
		}
		wg.Wait()

		if balance != expected {
			t.Fatalf("final balance %d, expected %d", balance, expected)
		}
	})
}

// TestTryLockExclusion checks that TryLock fails while the key is held and
// succeeds after release.
func TestTryLockExclusion(t *testing.T) {
	kl := NewKeyLock()
	key := WalletKey(7)

	assert.True(t, kl.TryLock(key))
	assert.False(t, kl.TryLock(key), "second TryLock must fail while held")
	kl.Unlock(key)
	assert.True(t, kl.TryLock(key))
	kl.Unlock(key)
}

// TestDistinctKeysIndependent checks that locks on different keys do not
// block each other.
func TestDistinctKeysIndependent(t *testing.T) {
	kl := NewKeyLock()

	kl.Lock(WalletKey(1))
	defer kl.Unlock(WalletKey(1))

	assert.True(t, kl.TryLock(WalletKey(2)))
	kl.Unlock(WalletKey(2))

	assert.True(t, kl.TryLock(EventKey(1)))
	kl.Unlock(EventKey(1))
}

// TestLockAllOrdering checks that LockAll acquires and fully releases a set
// of keys regardless of input order.
func TestLockAllOrdering(t *testing.T) {
	kl := NewKeyLock()
	keys := []string{WalletKey(3), WalletKey(1), WalletKey(2)}

	unlock := kl.LockAll(keys)
	for _, k := range keys {
		assert.False(t, kl.TryLock(k), "key %s must be held", k)
	}
	unlock()
	for _, k := range keys {
		assert.True(t, kl.TryLock(k), "key %s must be free", k)
		kl.Unlock(k)
	}
}

// TestWithLockContextTimeout checks that a held key times the caller out
// instead of blocking forever.
func TestWithLockContextTimeout(t *testing.T) {
	kl := NewKeyLock()
	key := WalletKey(9)

	kl.Lock(key)
	defer kl.Unlock(key)

	err := kl.WithLockContext(context.Background(), key, 20*time.Millisecond, func() error {
		t.Fatal("must not run while the key is held")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)
}
