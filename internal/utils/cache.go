package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Matching redis.Nil
	"fmt"           // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache stores JSON responses in Redis. A nil *Cache, or one built on a nil
// client, is a valid cache that never hits.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache wraps rdb; entries live for ttl
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 60 * time.Second // Default response lifetime
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil
}

// WalletKey is the cache key of a user's wallet view
func WalletKey(userID uint) string {
	return fmt.Sprintf("wallet:user:%d", userID)
}

// HistoryKey is the cache key of one page of a user's transaction history
func HistoryKey(userID uint, page, size int) string {
	return fmt.Sprintf("%s:page:%d:size:%d", historyPrefix(userID), page, size)
}

func historyPrefix(userID uint) string {
	return fmt.Sprintf("txhistory:user:%d", userID)
}

// GetJSON loads key into dest and reports whether it was found
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, key).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value under key for the cache TTL
func (c *Cache) SetJSON(ctx context.Context, key string, value any) error {
	if !c.enabled() {
		return nil
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Delete removes keys
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled() || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// InvalidateUser drops the wallet view and every cached history page of userID
func (c *Cache) InvalidateUser(ctx context.Context, userID uint) error {
	if !c.enabled() {
		return nil
	}
	keys := []string{WalletKey(userID)}
	iter := c.rdb.Scan(ctx, 0, historyPrefix(userID)+":*", 100).Iterator() // Walk all history pages
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.rdb.Del(ctx, keys...).Err()
}
