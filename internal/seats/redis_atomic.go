package seats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AtomicSeatOps handles the atomic Redis operations of the reservation engine.
// Every mutation of a seat key runs inside a single server-side Lua script so
// that no other operation on that key can interleave.
type AtomicSeatOps struct {
	redis *redis.Client
}

// NewAtomicSeatOps creates a new atomic seat operations handler
func NewAtomicSeatOps(redisClient *redis.Client) *AtomicSeatOps {
	return &AtomicSeatOps{
		redis: redisClient,
	}
}

// Lua script for atomic hold acquisition. Any existing value on the seat key
// (a foreign lock, the caller's own lock, or SOLD) is a conflict; holds are
// not renewable through acquisition.
var holdScript = redis.NewScript(`
-- KEYS[1] = seat key
-- ARGV[1] = user_id
-- ARGV[2] = ttl seconds
local current = redis.call("GET", KEYS[1])
if current then
    return {0, current}
end
redis.call("SET", KEYS[1], "LOCKED:" .. ARGV[1], "EX", tonumber(ARGV[2]))
return {1, "acquired"}
`)

// Lua script for atomic hold release: compare-and-delete. Deleting a missing
// or foreign lock is a no-op, which keeps release permissive under races with
// TTL expiry and concurrent purchases.
var releaseScript = redis.NewScript(`
-- KEYS[1] = seat key
-- ARGV[1] = user_id
local current = redis.call("GET", KEYS[1])
if current == "LOCKED:" .. ARGV[1] then
    redis.call("DEL", KEYS[1])
    return 1
end
return 0
`)

// AcquireHold atomically claims a seat for a user with the given TTL.
// Returns false when the seat is already locked or sold.
func (a *AtomicSeatOps) AcquireHold(ctx context.Context, seatID, userID string, ttl time.Duration) (bool, error) {
	if a.redis == nil {
		return false, fmt.Errorf("redis client not available")
	}

	keys := []string{SeatKey(seatID)}
	args := []interface{}{userID, strconv.Itoa(int(ttl.Seconds()))}

	result, err := holdScript.Run(ctx, a.redis, keys, args...).Result()
	if err != nil {
		return false, fmt.Errorf("failed to execute atomic seat hold: %w", err)
	}

	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) != 2 {
		return false, fmt.Errorf("unexpected result format from Lua script")
	}

	acquired, ok := resultArray[0].(int64)
	if !ok {
		return false, fmt.Errorf("invalid success flag in Lua script result")
	}

	return acquired == 1, nil
}

// ReleaseHold atomically deletes the caller's lock if it is still theirs.
func (a *AtomicSeatOps) ReleaseHold(ctx context.Context, seatID, userID string) error {
	if a.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	keys := []string{SeatKey(seatID)}
	if _, err := releaseScript.Run(ctx, a.redis, keys, userID).Result(); err != nil {
		return fmt.Errorf("failed to execute atomic seat release: %w", err)
	}

	return nil
}

// SeatValue reads the current hot-state value of a seat key.
// Returns "" when the key is absent.
func (a *AtomicSeatOps) SeatValue(ctx context.Context, seatID string) (string, error) {
	val, err := a.redis.Get(ctx, SeatKey(seatID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read seat state: %w", err)
	}
	return val, nil
}

// FinalizeSold overwrites the seat key with the persistent SOLD marker.
// Runs after the durable ledger commit; SOLD in the hot state never precedes
// the ledger.
func (a *AtomicSeatOps) FinalizeSold(ctx context.Context, seatID string) error {
	if err := a.redis.Set(ctx, SeatKey(seatID), soldValue, 0).Err(); err != nil {
		return fmt.Errorf("failed to finalize seat as sold: %w", err)
	}
	return nil
}

// Receipt reads a stored idempotency receipt. Returns nil when absent.
func (a *AtomicSeatOps) Receipt(ctx context.Context, idempotencyKey string) ([]byte, error) {
	raw, err := a.redis.Get(ctx, ReceiptKey(idempotencyKey)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt: %w", err)
	}
	return raw, nil
}

// PutReceiptNX stores a receipt only if none exists for the key; receipts are
// write-once and the first writer wins. Returns whether this call stored it.
func (a *AtomicSeatOps) PutReceiptNX(ctx context.Context, idempotencyKey string, payload []byte, ttl time.Duration) (bool, error) {
	stored, err := a.redis.SetNX(ctx, ReceiptKey(idempotencyKey), payload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to store receipt: %w", err)
	}
	return stored, nil
}

// SeatState is the hot-state overlay for one seat.
type SeatState struct {
	Value string
	TTL   time.Duration
}

// SeatStates scans every seat key with its value and remaining TTL.
// The scan is per-key consistent only; callers treat the result as a hint.
func (a *AtomicSeatOps) SeatStates(ctx context.Context) (map[string]SeatState, error) {
	if a.redis == nil {
		return nil, fmt.Errorf("redis client not available")
	}

	states := make(map[string]SeatState)

	iter := a.redis.Scan(ctx, 0, seatKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan seat keys: %w", err)
	}

	if len(keys) == 0 {
		return states, nil
	}

	pipe := a.redis.Pipeline()
	getCmds := make([]*redis.StringCmd, len(keys))
	ttlCmds := make([]*redis.DurationCmd, len(keys))
	for i, key := range keys {
		getCmds[i] = pipe.Get(ctx, key)
		ttlCmds[i] = pipe.TTL(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read seat states: %w", err)
	}

	for i, key := range keys {
		val, err := getCmds[i].Result()
		if err != nil {
			// Key expired between scan and read
			continue
		}
		ttl, err := ttlCmds[i].Result()
		if err != nil || ttl < 0 {
			ttl = 0
		}
		states[key[len(seatKeyPrefix):]] = SeatState{Value: val, TTL: ttl}
	}

	return states, nil
}

// FlushAll clears the entire hot state (admin reset).
func (a *AtomicSeatOps) FlushAll(ctx context.Context) error {
	if err := a.redis.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("failed to flush hot state: %w", err)
	}
	return nil
}

// PreloadScripts loads Lua scripts into Redis for better performance
func (a *AtomicSeatOps) PreloadScripts(ctx context.Context) error {
	if a.redis == nil {
		return fmt.Errorf("redis client not available")
	}

	if err := holdScript.Load(ctx, a.redis).Err(); err != nil {
		return fmt.Errorf("failed to load seat hold script: %w", err)
	}

	if err := releaseScript.Load(ctx, a.redis).Err(); err != nil {
		return fmt.Errorf("failed to load seat release script: %w", err)
	}

	return nil
}
