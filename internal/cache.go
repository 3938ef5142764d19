// Copyright 2026 PageForge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package internal

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Tiered cache for rendered TOC payloads: a short-lived in-process layer
// in front of redis. Invalidation is per book; every structural mutation
// drops both layers so no stale chapter list is served past the in-memory
// TTL of the other replicas.

var rdb *redis.Client
var ctx = context.Background()
var memCache *cache.Cache

var redisDataExpiration time.Duration
var memoryDataExpiration time.Duration

var redisInitialized bool

// InitCache initializes the redis-backed cache. With dryRun the process
// runs on the in-memory layer alone, which is what the tests and
// single-node deployments use.
func InitCache(redisURI string, redisURI2 string, redisURI3 string, redisPassword string, redisDB int, dryRun string) {
	memoryDataExpiration = 10 * time.Second
	memCache = cache.New(memoryDataExpiration, 20*time.Second)

	if dryRun == "True" || dryRun == "true" {
		zap.S().Infof("Running cache in DRY_RUN mode, redis will not be used")
		return
	}

	var failOverOptions = redis.FailoverOptions{
		MasterName:       "mymaster",
		SentinelAddrs:    []string{redisURI, redisURI2, redisURI3},
		SentinelPassword: redisPassword,
		Password:         redisPassword,
		DB:               redisDB,
	}
	zap.S().Debugf("Initializing redis cache with options: %#v", failOverOptions)

	rdb = redis.NewFailoverClient(&failOverOptions)
	redisDataExpiration = 12 * time.Hour
	redisInitialized = true
}

// InitMemcache sets up the in-memory layer only.
func InitMemcache() {
	memoryDataExpiration = 10 * time.Second
	memCache = cache.New(memoryDataExpiration, 20*time.Second)
	redisInitialized = false
}

// IsRedisAvailable pings redis.
func IsRedisAvailable() bool {
	if !redisInitialized {
		zap.S().Warn("Redis is not initialized")
		return false
	}
	if rdb != nil {
		timeout, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		statusCmd := rdb.Ping(timeout)
		if statusCmd != nil && statusCmd.Val() == "PONG" {
			return true
		}
		zap.S().Debugf("Redis error: %s", statusCmd)
	}
	return false
}

func tocCacheKey(bookID string) string {
	return "toc:" + CacheKey([]byte(bookID))
}

// GetTocCache returns the cached TOC payload for a book, checking the
// in-memory layer first and falling back to redis.
func GetTocCache(bookID string) (payload []byte, cached bool) {
	key := tocCacheKey(bookID)

	if value, found := memCache.Get(key); found {
		if payload, cached = value.([]byte); cached {
			return
		}
	}
	if !redisInitialized {
		return nil, false
	}

	deadline := time.Now().Add(memoryDataExpiration)
	rctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	payload, err := rdb.Get(rctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	// Write back to the in-memory layer.
	memCache.SetDefault(key, payload)
	return payload, true
}

// SetTocCache stores a rendered TOC payload in both layers.
func SetTocCache(bookID string, payload []byte) {
	key := tocCacheKey(bookID)
	memCache.SetDefault(key, payload)
	if redisInitialized {
		rdb.Set(ctx, key, payload, redisDataExpiration)
	}
}

// InvalidateBook drops the cached TOC of one book from both layers.
// Called after every committed structural mutation.
func InvalidateBook(bookID string) {
	key := tocCacheKey(bookID)
	memCache.Delete(key)
	if redisInitialized {
		if err := rdb.Del(ctx, key).Err(); err != nil {
			zap.S().Warnf("Failed to invalidate redis cache for book %s: %s", bookID, err)
		}
	}
}
