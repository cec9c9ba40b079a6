package streaks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/whisperecho/backend/internal/models"
)

func ts(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func TestApplyFirstPost(t *testing.T) {
	postedAt := ts(2025, time.March, 10, 14)

	s, transition := Apply(models.Streaks{}, postedAt)

	assert.Equal(t, TransitionStarted, transition)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.LongestStreak)
	assert.Equal(t, postedAt, *s.LastPostDate)
}

func TestApplySameDayIsIdempotent(t *testing.T) {
	first := ts(2025, time.March, 10, 8)
	s, _ := Apply(models.Streaks{}, first)

	later := ts(2025, time.March, 10, 23)
	s2, transition := Apply(s, later)

	assert.Equal(t, TransitionUnchanged, transition)
	assert.Equal(t, s.CurrentStreak, s2.CurrentStreak)
	assert.Equal(t, first, *s2.LastPostDate, "last post date must not move on a same-day post")
}

func TestApplyConsecutiveDayExtends(t *testing.T) {
	s, _ := Apply(models.Streaks{}, ts(2025, time.March, 10, 12))
	s, _ = Apply(s, ts(2025, time.March, 11, 9))
	s, transition := Apply(s, ts(2025, time.March, 12, 22))

	assert.Equal(t, TransitionExtended, transition)
	assert.Equal(t, 3, s.CurrentStreak)
	assert.Equal(t, 3, s.LongestStreak)
}

func TestApplyGapResets(t *testing.T) {
	s, _ := Apply(models.Streaks{}, ts(2025, time.March, 10, 12))
	s, _ = Apply(s, ts(2025, time.March, 11, 12))

	s, transition := Apply(s, ts(2025, time.March, 14, 12))

	assert.Equal(t, TransitionReset, transition)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 2, s.LongestStreak, "longest streak survives a reset")
}

func TestApplyMidnightBoundaryCountsAsNextDay(t *testing.T) {
	// 23:59 then 00:01 the next day is consecutive even though less than
	// a day elapsed on the clock
	s, _ := Apply(models.Streaks{}, ts(2025, time.March, 10, 23))
	s, transition := Apply(s, time.Date(2025, time.March, 11, 0, 1, 0, 0, time.UTC))

	assert.Equal(t, TransitionExtended, transition)
	assert.Equal(t, 2, s.CurrentStreak)
}

func TestApplyBackwardsTimestampIsNoOp(t *testing.T) {
	s, _ := Apply(models.Streaks{}, ts(2025, time.March, 10, 12))
	before := *s.LastPostDate

	s2, transition := Apply(s, ts(2025, time.March, 9, 12))

	assert.Equal(t, TransitionUnchanged, transition)
	assert.Equal(t, before, *s2.LastPostDate, "last post date never moves backwards")
}

func TestApplyLongestTracksMax(t *testing.T) {
	var s models.Streaks

	// Build a 5-day streak
	day := ts(2025, time.June, 1, 10)
	for i := 0; i < 5; i++ {
		s, _ = Apply(s, day.AddDate(0, 0, i))
	}
	assert.Equal(t, 5, s.CurrentStreak)
	assert.Equal(t, 5, s.LongestStreak)

	// Break it, then build a shorter one
	s, _ = Apply(s, day.AddDate(0, 0, 10))
	s, _ = Apply(s, day.AddDate(0, 0, 11))
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 5, s.LongestStreak)
}

func TestDaysBetween(t *testing.T) {
	a := ts(2025, time.March, 10, 23)
	b := time.Date(2025, time.March, 11, 0, 30, 0, 0, time.UTC)
	assert.Equal(t, 1, daysBetween(a, b))

	assert.Equal(t, 0, daysBetween(a, ts(2025, time.March, 10, 1)))
	assert.Equal(t, 7, daysBetween(a, ts(2025, time.March, 17, 23)))
}
