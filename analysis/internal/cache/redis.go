package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tgo/filepipe/analysis/internal/model"
)

const keyPrefix = "analysis:"

// RedisCache is a hot cache of analysis records in front of the database.
// Records are immutable except for the one-time artifact id, so entries are
// only ever set after a read/create and invalidated on that single update.
// Cache failures are logged and degrade to database reads.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, fileID string) (*model.AnalysisRecord, bool) {
	raw, err := c.rdb.Get(ctx, keyPrefix+fileID).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[RedisCache] Get %s failed: %v", fileID, err)
		}
		return nil, false
	}
	var rec model.AnalysisRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		log.Printf("[RedisCache] Corrupt entry for %s: %v", fileID, err)
		return nil, false
	}
	return &rec, true
}

func (c *RedisCache) Set(ctx context.Context, rec *model.AnalysisRecord) {
	raw, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[RedisCache] Marshal %s failed: %v", rec.FileID, err)
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+rec.FileID.String(), raw, c.ttl).Err(); err != nil {
		log.Printf("[RedisCache] Set %s failed: %v", rec.FileID, err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, fileID string) {
	if err := c.rdb.Del(ctx, keyPrefix+fileID).Err(); err != nil {
		log.Printf("[RedisCache] Invalidate %s failed: %v", fileID, err)
	}
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
