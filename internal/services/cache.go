package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AnshRaj112/pixora-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// DefaultConversationTTL bounds how stale a cached directory can be
	DefaultConversationTTL = 30 * time.Second
)

// ConversationCache keeps a user's conversation list in Redis as JSON.
// A nil cache, or one without a client, always misses.
type ConversationCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewConversationCache(rdb *redis.Client, ttl time.Duration) *ConversationCache {
	if ttl <= 0 {
		ttl = DefaultConversationTTL
	}
	return &ConversationCache{rdb: rdb, ttl: ttl}
}

func conversationKey(userID primitive.ObjectID) string {
	return CacheKeyPrefix + "conversations:" + userID.Hex()
}

func (c *ConversationCache) enabled() bool {
	return c != nil && c.rdb != nil
}

// Get returns the cached list; any Redis or decode failure is a miss.
func (c *ConversationCache) Get(ctx context.Context, userID primitive.ObjectID) ([]models.ConversationSummary, bool) {
	if !c.enabled() {
		return nil, false
	}
	val, err := c.rdb.Get(ctx, conversationKey(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var list []models.ConversationSummary
	if err := json.Unmarshal(val, &list); err != nil {
		return nil, false
	}
	return list, true
}

func (c *ConversationCache) Set(ctx context.Context, userID primitive.ObjectID, list []models.ConversationSummary) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, conversationKey(userID), data, c.ttl).Err()
}

// Invalidate drops the cached lists of every given user.
func (c *ConversationCache) Invalidate(ctx context.Context, userIDs ...primitive.ObjectID) error {
	if !c.enabled() || len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = conversationKey(id)
	}
	return c.rdb.Del(ctx, keys...).Err()
}
