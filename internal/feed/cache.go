package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/whisperecho/backend/internal/cache"
	"github.com/whisperecho/backend/internal/logger"
	"github.com/whisperecho/backend/internal/models"
	"go.uber.org/zap"
)

// Explore pages for anonymous viewers are cached briefly in Redis. Viewer
// reaction annotation is per-user, so authenticated requests always hit the
// database.

// ExploreCachePrefix namespaces every cached explore page key
const ExploreCachePrefix = "explore:"

const exploreCacheTTL = time.Minute

func exploreCacheKey(sort ExploreSort, category models.Category, page, limit int) string {
	return fmt.Sprintf("%s%s:%s:%d:%d", ExploreCachePrefix, sort, category, page, limit)
}

// cachedExplorePage returns the cached page for key, or false on a miss.
// Any Redis or decode failure reads as a miss.
func cachedExplorePage(key string) (*Page, bool) {
	rc := cache.GetRedisClient()
	if rc == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := rc.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var page Page
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return nil, false
	}
	return &page, true
}

// storeExplorePage caches a composed page under key, best-effort
func storeExplorePage(key string, page *Page) {
	rc := cache.GetRedisClient()
	if rc == nil {
		return
	}

	raw, err := json.Marshal(page)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rc.SetEx(ctx, key, raw, exploreCacheTTL); err != nil {
		logger.Log.Warn("explore cache store failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// InvalidateExploreCache drops every cached explore page after a post
// mutation. Misses are rebuilt on the next anonymous read.
func InvalidateExploreCache() {
	rc := cache.GetRedisClient()
	if rc == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rc.DelByPattern(ctx, ExploreCachePrefix+"*"); err != nil {
		logger.Log.Warn("explore cache invalidation failed", zap.Error(err))
	}
}
