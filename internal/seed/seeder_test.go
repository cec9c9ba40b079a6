package seed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/whisperecho/backend/internal/models"
)

func TestAvatarPlaceholderURL(t *testing.T) {
	url := avatarPlaceholderURL(256)
	assert.True(t, strings.HasPrefix(url, "https://picsum.photos/seed/"))
	assert.True(t, strings.HasSuffix(url, "/256/256"))

	// Seeded component varies between calls
	assert.NotEqual(t, url, avatarPlaceholderURL(256))
}

func TestRandomCategories(t *testing.T) {
	assert.Empty(t, randomCategories(0))

	prefs := randomCategories(3)
	assert.Len(t, prefs, 3)
	for _, p := range prefs {
		assert.Contains(t, categoryStrings(), p)
	}
}

func categoryStrings() []string {
	out := make([]string, 0, len(models.Categories))
	for _, c := range models.Categories {
		out = append(out, string(c))
	}
	return out
}
