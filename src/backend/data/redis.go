package data

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/redis/go-redis/v9"

	"github.com/suidao-labs/suidao-backend/src/backend/types"
)

const (
	KeyDaoList      = "cache:daos"
	KeyProposalList = "cache:proposals"

	listCacheTTL = 10 * time.Second
	seenEventTTL = 7 * 24 * time.Hour
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// CacheGetList returns a cached list response body, if any. A nil client or
// a redis error reads as a miss.
func CacheGetList(ctx context.Context, rdb *redis.Client, key string) ([]byte, bool) {
	if rdb == nil {
		return nil, false
	}
	b, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func CacheSetList(ctx context.Context, rdb *redis.Client, key string, body []byte) {
	if rdb == nil {
		return
	}
	if err := rdb.Set(ctx, key, body, listCacheTTL).Err(); err != nil {
		log.Printf("redis: cache set %s: %v", key, err)
	}
}

// InvalidateLists drops the list caches after any mirror write.
func InvalidateLists(ctx context.Context, rdb *redis.Client) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(ctx, KeyDaoList, KeyProposalList).Err(); err != nil {
		log.Printf("redis: cache invalidate: %v", err)
	}
}

// EventSeen reports whether a chain event identity was already recorded.
// Best effort: without redis (nil client or error) every event reads as
// unseen, preserving at-least-once delivery.
func EventSeen(ctx context.Context, rdb *redis.Client, id types.EventID) bool {
	if rdb == nil || id.TxDigest == "" {
		return false
	}
	n, err := rdb.Exists(ctx, seenEventKey(id)).Result()
	if err != nil {
		log.Printf("redis: event seen check: %v", err)
		return false
	}
	return n > 0
}

// MarkEventSeen records a chain event identity. Callers mark only after the
// event's effect is durably applied; marking first would turn a transient
// store error into a permanently dropped event.
func MarkEventSeen(ctx context.Context, rdb *redis.Client, id types.EventID) {
	if rdb == nil || id.TxDigest == "" {
		return
	}
	if err := rdb.Set(ctx, seenEventKey(id), 1, seenEventTTL).Err(); err != nil {
		log.Printf("redis: mark event seen: %v", err)
	}
}

func seenEventKey(id types.EventID) string {
	return fmt.Sprintf("seen:%x", xxhash.ChecksumString64(id.TxDigest+"|"+id.EventSeq))
}
