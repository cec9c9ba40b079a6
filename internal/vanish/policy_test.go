package vanish

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/whisperecho/backend/internal/models"
)

func TestModeForEmptyTokenDisablesVanish(t *testing.T) {
	mode, err := ModeFor("", time.Now())
	assert.NoError(t, err)
	assert.False(t, mode.Enabled)
	assert.Nil(t, mode.VanishAt)
}

func TestModeForKnownTokens(t *testing.T) {
	createdAt := time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)

	cases := map[string]time.Duration{
		"1hour": time.Hour,
		"1day":  24 * time.Hour,
		"1week": 7 * 24 * time.Hour,
	}
	for token, d := range cases {
		mode, err := ModeFor(token, createdAt)
		assert.NoError(t, err, token)
		assert.True(t, mode.Enabled, token)
		assert.Equal(t, createdAt.Add(d), *mode.VanishAt, token)
	}
}

func TestModeForRejectsUnknownToken(t *testing.T) {
	_, err := ModeFor("2hours", time.Now())
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = ModeFor("forever", time.Now())
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestIsVisiblePlainPost(t *testing.T) {
	p := &models.Post{}
	assert.True(t, IsVisible(p, time.Now()))
}

func TestIsVisibleHiddenPost(t *testing.T) {
	at := time.Now().Add(time.Hour)
	p := &models.Post{
		IsHidden:   true,
		VanishMode: models.VanishMode{Enabled: true, VanishAt: &at},
	}
	assert.False(t, IsVisible(p, time.Now()), "hidden wins regardless of vanish state")
}

func TestIsVisibleBeforeAndAfterVanish(t *testing.T) {
	now := time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)
	at := now.Add(time.Minute)
	p := &models.Post{VanishMode: models.VanishMode{Enabled: true, VanishAt: &at}}

	assert.True(t, IsVisible(p, now))
	assert.False(t, IsVisible(p, now.Add(time.Minute)), "boundary instant is not visible")
	assert.False(t, IsVisible(p, now.Add(2*time.Minute)))
}

func TestIsVisibleEnabledWithoutDeadline(t *testing.T) {
	// Enabled with no vanish_at stored means the post never expires
	p := &models.Post{VanishMode: models.VanishMode{Enabled: true}}
	assert.True(t, IsVisible(p, time.Now()))
}

func TestVisibleConditionShape(t *testing.T) {
	now := time.Now()
	cond, args := VisibleCondition(now)

	assert.Contains(t, cond, "is_hidden = false")
	assert.Contains(t, cond, "vanish_mode->>'vanish_at'")
	// A missing deadline must read as never-expires, matching IsVisible
	assert.Contains(t, cond, "(vanish_mode->>'vanish_at') IS NULL")
	assert.Len(t, args, 1)
	assert.Equal(t, now, args[0])
}
