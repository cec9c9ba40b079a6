// Package streaks implements consecutive-day posting streak arithmetic.
// Days are calendar days in UTC, not rolling 24-hour windows.
package streaks

import (
	"time"

	"github.com/whisperecho/backend/internal/logger"
	"github.com/whisperecho/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Transition names what Apply did to the streak, for logging and metrics
type Transition string

const (
	TransitionStarted   Transition = "started"
	TransitionExtended  Transition = "extended"
	TransitionReset     Transition = "reset"
	TransitionUnchanged Transition = "unchanged"
)

// midnightUTC truncates t to the start of its UTC calendar day
func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of UTC calendar-day boundaries crossed
// between a and b
func daysBetween(a, b time.Time) int {
	return int(midnightUTC(b).Sub(midnightUTC(a)).Hours() / 24)
}

// Apply advances the streak counters for a post made at postedAt and reports
// the transition taken:
//
//	first post ever            -> current = 1
//	same UTC day as last post  -> unchanged (idempotent)
//	exactly the next day       -> current + 1
//	gap of more than one day   -> current = 1
//
// LongestStreak tracks the max current ever reached; LastPostDate never
// moves backwards.
func Apply(s models.Streaks, postedAt time.Time) (models.Streaks, Transition) {
	postedAt = postedAt.UTC()

	if s.LastPostDate == nil {
		s.CurrentStreak = 1
		s.LastPostDate = &postedAt
		if s.LongestStreak < 1 {
			s.LongestStreak = 1
		}
		return s, TransitionStarted
	}

	days := daysBetween(*s.LastPostDate, postedAt)
	switch {
	case days <= 0:
		// Second post today, or a clock-skewed timestamp behind the last
		// recorded one; either way nothing changes
		return s, TransitionUnchanged
	case days == 1:
		s.CurrentStreak++
	default:
		s.CurrentStreak = 1
	}

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastPostDate = &postedAt

	if days == 1 {
		return s, TransitionExtended
	}
	return s, TransitionReset
}

// Tracker persists streak updates for users
type Tracker struct {
	db *gorm.DB
}

// NewTracker creates a streak tracker backed by db
func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{db: db}
}

// RecordPost updates the user's streak for a post made at postedAt. Returns
// the new counters and the transition taken.
func (t *Tracker) RecordPost(userID string, postedAt time.Time) (models.Streaks, Transition, error) {
	var user models.User
	if err := t.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return models.Streaks{}, "", err
	}

	updated, transition := Apply(user.Streaks, postedAt)
	if transition == TransitionUnchanged {
		return updated, transition, nil
	}

	err := t.db.Model(&models.User{}).Where("id = ?", userID).
		Update("streaks", updated).Error
	if err != nil {
		return models.Streaks{}, "", err
	}
	return updated, transition, nil
}

// RecordPostAsync runs RecordPost in the background. Streak bookkeeping is
// best-effort: a failure is logged and never rolls back the post that
// triggered it.
func (t *Tracker) RecordPostAsync(userID string, postedAt time.Time) {
	go func() {
		if _, _, err := t.RecordPost(userID, postedAt); err != nil {
			logger.Log.Warn("streak update failed",
				logger.WithUserID(userID),
				zap.Error(err),
			)
		}
	}()
}
