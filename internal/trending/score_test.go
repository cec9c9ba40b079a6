package trending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScoreIncreasesWithEngagement(t *testing.T) {
	now := time.Now().UTC()
	createdAt := now.Add(-3 * time.Hour)

	low := Score(1, 0, createdAt, now)
	high := Score(5, 0, createdAt, now)
	assert.Greater(t, high, low, "more reactions at the same age must score higher")

	withComments := Score(5, 3, createdAt, now)
	assert.Greater(t, withComments, high, "comments add on top of reactions")
}

func TestScoreDecreasesWithAge(t *testing.T) {
	now := time.Now().UTC()

	fresh := Score(10, 2, now.Add(-1*time.Hour), now)
	stale := Score(10, 2, now.Add(-48*time.Hour), now)
	assert.Greater(t, fresh, stale, "same engagement must decay with age")
}

func TestScoreCommentsWeighDouble(t *testing.T) {
	now := time.Now().UTC()
	createdAt := now.Add(-6 * time.Hour)

	oneComment := Score(0, 1, createdAt, now)
	oneReaction := Score(1, 0, createdAt, now)
	twoReactions := Score(2, 0, createdAt, now)

	assert.Greater(t, oneComment, oneReaction)
	assert.InDelta(t, twoReactions, oneComment, 1e-12, "one comment should equal two reactions")
}

func TestScoreZeroEngagement(t *testing.T) {
	now := time.Now().UTC()
	assert.Zero(t, Score(0, 0, now.Add(-5*time.Hour), now))
}

func TestScoreClockSkewClampsToZeroAge(t *testing.T) {
	now := time.Now().UTC()

	// A createdAt slightly in the future must not blow the score up
	future := Score(4, 0, now.Add(2*time.Minute), now)
	atNow := Score(4, 0, now, now)
	assert.Equal(t, atNow, future)
}

func TestScoreStrictOrderingAcrossAges(t *testing.T) {
	now := time.Now().UTC()

	var prev float64
	for i, hours := range []int{1, 6, 24, 72, 168} {
		s := Score(20, 10, now.Add(-time.Duration(hours)*time.Hour), now)
		if i > 0 {
			assert.Less(t, s, prev, "score must strictly decrease as posts age")
		}
		prev = s
	}
}
