package seats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAtomicOps(t *testing.T) (*AtomicSeatOps, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewAtomicSeatOps(client), mr
}

func TestAcquireHold(t *testing.T) {
	ctx := context.Background()

	t.Run("acquires a free seat", func(t *testing.T) {
		ops, mr := newTestAtomicOps(t)

		acquired, err := ops.AcquireHold(ctx, "A1", "user-1", 300*time.Second)
		require.NoError(t, err)
		assert.True(t, acquired)

		val, err := mr.Get(SeatKey("A1"))
		require.NoError(t, err)
		assert.Equal(t, "LOCKED:user-1", val)
		assert.Equal(t, 300*time.Second, mr.TTL(SeatKey("A1")))
	})

	t.Run("rejects a seat locked by another user", func(t *testing.T) {
		ops, _ := newTestAtomicOps(t)

		acquired, err := ops.AcquireHold(ctx, "A1", "user-1", 300*time.Second)
		require.NoError(t, err)
		require.True(t, acquired)

		acquired, err = ops.AcquireHold(ctx, "A1", "user-2", 300*time.Second)
		require.NoError(t, err)
		assert.False(t, acquired)
	})

	t.Run("does not renew the caller's own lock", func(t *testing.T) {
		ops, _ := newTestAtomicOps(t)

		acquired, err := ops.AcquireHold(ctx, "A1", "user-1", 300*time.Second)
		require.NoError(t, err)
		require.True(t, acquired)

		acquired, err = ops.AcquireHold(ctx, "A1", "user-1", 300*time.Second)
		require.NoError(t, err)
		assert.False(t, acquired)
	})

	t.Run("rejects a sold seat", func(t *testing.T) {
		ops, _ := newTestAtomicOps(t)

		require.NoError(t, ops.FinalizeSold(ctx, "A1"))

		acquired, err := ops.AcquireHold(ctx, "A1", "user-1", 300*time.Second)
		require.NoError(t, err)
		assert.False(t, acquired)
	})

	t.Run("frees the seat after TTL expiry", func(t *testing.T) {
		ops, mr := newTestAtomicOps(t)

		acquired, err := ops.AcquireHold(ctx, "A1", "user-1", 300*time.Second)
		require.NoError(t, err)
		require.True(t, acquired)

		mr.FastForward(301 * time.Second)

		acquired, err = ops.AcquireHold(ctx, "A1", "user-2", 300*time.Second)
		require.NoError(t, err)
		assert.True(t, acquired)

		val, err := mr.Get(SeatKey("A1"))
		require.NoError(t, err)
		assert.Equal(t, "LOCKED:user-2", val)
	})

	t.Run("exactly one winner under contention", func(t *testing.T) {
		ops, _ := newTestAtomicOps(t)

		const contenders = 50
		var wg sync.WaitGroup
		wins := make(chan string, contenders)

		for i := 0; i < contenders; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				userID := "user-" + string(rune('a'+n%26)) + string(rune('a'+n/26))
				acquired, err := ops.AcquireHold(ctx, "A1", userID, 300*time.Second)
				if err == nil && acquired {
					wins <- userID
				}
			}(i)
		}
		wg.Wait()
		close(wins)

		var winners []string
		for w := range wins {
			winners = append(winners, w)
		}
		require.Len(t, winners, 1)

		val, err := ops.SeatValue(ctx, "A1")
		require.NoError(t, err)
		assert.Equal(t, "LOCKED:"+winners[0], val)
	})
}

func TestReleaseHold(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the caller's own lock", func(t *testing.T) {
		ops, mr := newTestAtomicOps(t)

		acquired, err := ops.AcquireHold(ctx, "A1", "user-1", 300*time.Second)
		require.NoError(t, err)
		require.True(t, acquired)

		require.NoError(t, ops.ReleaseHold(ctx, "A1", "user-1"))
		assert.False(t, mr.Exists(SeatKey("A1")))
	})

	t.Run("leaves a foreign lock in place", func(t *testing.T) {
		ops, mr := newTestAtomicOps(t)

		acquired, err := ops.AcquireHold(ctx, "A1", "user-1", 300*time.Second)
		require.NoError(t, err)
		require.True(t, acquired)

		require.NoError(t, ops.ReleaseHold(ctx, "A1", "user-2"))

		val, err := mr.Get(SeatKey("A1"))
		require.NoError(t, err)
		assert.Equal(t, "LOCKED:user-1", val)
	})

	t.Run("is a no-op on a missing lock", func(t *testing.T) {
		ops, _ := newTestAtomicOps(t)
		assert.NoError(t, ops.ReleaseHold(ctx, "A1", "user-1"))
	})

	t.Run("leaves a sold seat untouched", func(t *testing.T) {
		ops, _ := newTestAtomicOps(t)

		require.NoError(t, ops.FinalizeSold(ctx, "A1"))
		require.NoError(t, ops.ReleaseHold(ctx, "A1", "user-1"))

		val, err := ops.SeatValue(ctx, "A1")
		require.NoError(t, err)
		assert.True(t, IsSold(val))
	})
}

func TestFinalizeSold(t *testing.T) {
	ctx := context.Background()
	ops, mr := newTestAtomicOps(t)

	acquired, err := ops.AcquireHold(ctx, "A1", "user-1", 300*time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, ops.FinalizeSold(ctx, "A1"))

	val, err := mr.Get(SeatKey("A1"))
	require.NoError(t, err)
	assert.Equal(t, "SOLD", val)

	// SOLD never expires
	assert.Equal(t, time.Duration(0), mr.TTL(SeatKey("A1")))

	mr.FastForward(24 * time.Hour)
	val, err = ops.SeatValue(ctx, "A1")
	require.NoError(t, err)
	assert.True(t, IsSold(val))
}

func TestSeatValue(t *testing.T) {
	ctx := context.Background()
	ops, _ := newTestAtomicOps(t)

	val, err := ops.SeatValue(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestReceipts(t *testing.T) {
	ctx := context.Background()

	t.Run("absent receipt reads as nil", func(t *testing.T) {
		ops, _ := newTestAtomicOps(t)

		raw, err := ops.Receipt(ctx, "key-1")
		require.NoError(t, err)
		assert.Nil(t, raw)
	})

	t.Run("first writer wins", func(t *testing.T) {
		ops, _ := newTestAtomicOps(t)

		stored, err := ops.PutReceiptNX(ctx, "key-1", []byte(`{"success":true,"txId":"tx_first"}`), 24*time.Hour)
		require.NoError(t, err)
		assert.True(t, stored)

		stored, err = ops.PutReceiptNX(ctx, "key-1", []byte(`{"success":true,"txId":"tx_second"}`), 24*time.Hour)
		require.NoError(t, err)
		assert.False(t, stored)

		raw, err := ops.Receipt(ctx, "key-1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"success":true,"txId":"tx_first"}`), raw)
	})

	t.Run("expires after the retention window", func(t *testing.T) {
		ops, mr := newTestAtomicOps(t)

		stored, err := ops.PutReceiptNX(ctx, "key-1", []byte(`{"success":true,"txId":"tx_1"}`), 24*time.Hour)
		require.NoError(t, err)
		require.True(t, stored)

		mr.FastForward(24*time.Hour + time.Second)

		raw, err := ops.Receipt(ctx, "key-1")
		require.NoError(t, err)
		assert.Nil(t, raw)
	})
}

func TestSeatStates(t *testing.T) {
	ctx := context.Background()
	ops, mr := newTestAtomicOps(t)

	acquired, err := ops.AcquireHold(ctx, "A1", "user-1", 300*time.Second)
	require.NoError(t, err)
	require.True(t, acquired)
	require.NoError(t, ops.FinalizeSold(ctx, "B2"))

	// Receipts must not leak into the seat overlay
	_, err = ops.PutReceiptNX(ctx, "key-1", []byte(`{}`), time.Hour)
	require.NoError(t, err)

	states, err := ops.SeatStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)

	locked := states["A1"]
	holder, ok := LockHolder(locked.Value)
	require.True(t, ok)
	assert.Equal(t, "user-1", holder)
	assert.Equal(t, 300*time.Second, locked.TTL)

	assert.True(t, IsSold(states["B2"].Value))

	mr.FastForward(301 * time.Second)

	states, err = ops.SeatStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.True(t, IsSold(states["B2"].Value))
}

func TestFlushAll(t *testing.T) {
	ctx := context.Background()
	ops, _ := newTestAtomicOps(t)

	_, err := ops.AcquireHold(ctx, "A1", "user-1", 300*time.Second)
	require.NoError(t, err)
	require.NoError(t, ops.FinalizeSold(ctx, "B2"))

	require.NoError(t, ops.FlushAll(ctx))

	states, err := ops.SeatStates(ctx)
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestPreloadScripts(t *testing.T) {
	ctx := context.Background()
	ops, _ := newTestAtomicOps(t)

	require.NoError(t, ops.PreloadScripts(ctx))

	acquired, err := ops.AcquireHold(ctx, "A1", "user-1", 300*time.Second)
	require.NoError(t, err)
	assert.True(t, acquired)
}
