// Package vanish implements opt-in post expiry: the visibility policy every
// read path applies, and the background sweep that purges expired rows.
package vanish

import (
	"errors"
	"time"

	"github.com/whisperecho/backend/internal/models"
)

// ErrInvalidDuration is returned for an unknown vanish duration token
var ErrInvalidDuration = errors.New("invalid vanish duration")

// Durations users can pick when enabling vanish mode
var Durations = map[string]time.Duration{
	"1hour": time.Hour,
	"1day":  24 * time.Hour,
	"1week": 7 * 24 * time.Hour,
}

// WhisperTTL is how long WhisperWall posts live. Read paths filter on it
// and the sweep hard-deletes rows past it.
const WhisperTTL = 24 * time.Hour

// ModeFor builds the VanishMode for a post created at createdAt with the
// given duration token ("1hour", "1day", "1week"). An empty token means
// vanish mode is off.
func ModeFor(durationToken string, createdAt time.Time) (models.VanishMode, error) {
	if durationToken == "" {
		return models.VanishMode{}, nil
	}
	d, ok := Durations[durationToken]
	if !ok {
		return models.VanishMode{}, ErrInvalidDuration
	}
	at := createdAt.Add(d)
	return models.VanishMode{Enabled: true, VanishAt: &at}, nil
}

// IsVisible is the authoritative visibility check, applied on every read
// path. The sweep only reclaims storage; a post past its VanishAt is gone
// even if the sweep has not run yet.
func IsVisible(p *models.Post, now time.Time) bool {
	if p.IsHidden {
		return false
	}
	if !p.VanishMode.Enabled {
		return true
	}
	return p.VanishMode.VanishAt == nil || p.VanishMode.VanishAt.After(now)
}

// VisibleCondition returns the SQL twin of IsVisible for list queries, as a
// condition string plus its arguments for db.Where.
func VisibleCondition(now time.Time) (string, []interface{}) {
	cond := "is_hidden = false AND ((vanish_mode->>'enabled')::boolean IS NOT TRUE OR (vanish_mode->>'vanish_at') IS NULL OR (vanish_mode->>'vanish_at')::timestamptz > ?)"
	return cond, []interface{}{now}
}
