package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docqa-platform/models"
)

// AnswerCache memoizes generated answers per (session, question, k). The
// cache is best-effort: misses and backend errors both fall through to a
// fresh retrieval.
type AnswerCache interface {
	Get(ctx context.Context, sessionID, question string, k int) (*models.AskResponse, bool)
	Set(ctx context.Context, sessionID, question string, k int, resp *models.AskResponse)
}

// NoopAnswerCache disables caching.
type NoopAnswerCache struct{}

func (NoopAnswerCache) Get(ctx context.Context, sessionID, question string, k int) (*models.AskResponse, bool) {
	return nil, false
}
func (NoopAnswerCache) Set(ctx context.Context, sessionID, question string, k int, resp *models.AskResponse) {
}

// RedisAnswerCache stores answers in Redis with a TTL.
type RedisAnswerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisAnswerCache(rdb *redis.Client, ttl time.Duration) *RedisAnswerCache {
	return &RedisAnswerCache{rdb: rdb, ttl: ttl}
}

func answerCacheKey(sessionID, question string, k int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d", sessionID, question, k)))
	return "answer:" + hex.EncodeToString(sum[:])
}

func (c *RedisAnswerCache) Get(ctx context.Context, sessionID, question string, k int) (*models.AskResponse, bool) {
	data, err := c.rdb.Get(ctx, answerCacheKey(sessionID, question, k)).Bytes()
	if err != nil {
		return nil, false
	}
	var resp models.AskResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (c *RedisAnswerCache) Set(ctx context.Context, sessionID, question string, k int, resp *models.AskResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	// Fire and forget; a failed cache write never fails the request.
	c.rdb.Set(ctx, answerCacheKey(sessionID, question, k), data, c.ttl)
}
