package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/whisperecho/backend/internal/models"
)

func TestExploreCacheKeyShape(t *testing.T) {
	key := exploreCacheKey(SortTrending, models.CategoryMusic, 2, 20)

	assert.True(t, strings.HasPrefix(key, ExploreCachePrefix))
	assert.Equal(t, "explore:trending:music:2:20", key)

	// The no-category filter gets its own key space
	assert.Equal(t, "explore:recent::1:50", exploreCacheKey(SortRecent, "", 1, 50))
}

func TestExploreCacheKeyVariesByPage(t *testing.T) {
	a := exploreCacheKey(SortTrending, models.CategoryMusic, 1, 20)
	b := exploreCacheKey(SortTrending, models.CategoryMusic, 2, 20)
	assert.NotEqual(t, a, b)
}

func TestExploreCacheWithoutRedisIsMiss(t *testing.T) {
	// No Redis configured: reads miss and writes are dropped, no panic
	page, ok := cachedExplorePage("explore:trending::1:20")
	assert.False(t, ok)
	assert.Nil(t, page)

	storeExplorePage("explore:trending::1:20", &Page{Page: 1, Limit: 20})
	InvalidateExploreCache()
}
