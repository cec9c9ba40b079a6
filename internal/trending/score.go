// Package trending computes the decay-weighted engagement score used to rank
// the explore feed. The score is cached on each post and recomputed on every
// reaction or comment mutation; the reactions and comments tables stay
// authoritative.
package trending

import (
	"math"
	"time"

	"github.com/whisperecho/backend/internal/logger"
	"github.com/whisperecho/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// Comments signal stronger engagement than reactions
	commentWeight = 2.0

	// Gravity controls how fast old posts fall off; the offset keeps
	// brand-new posts from dividing by ~zero
	gravity    = 1.5
	hourOffset = 2.0
)

// Score returns the trending score for a post with the given engagement
// counts and age. Strictly increasing in engagement at fixed age, strictly
// decreasing in age at fixed engagement.
func Score(reactionCount, commentCount int, createdAt, now time.Time) float64 {
	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	engagement := float64(reactionCount) + commentWeight*float64(commentCount)
	return engagement / math.Pow(ageHours+hourOffset, gravity)
}

// Recompute refreshes a post's cached counters and trending score from the
// reactions and comments tables. Runs in a single transaction so concurrent
// mutations cannot leave the counters torn.
func Recompute(db *gorm.DB, postID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Where("id = ?", postID).First(&post).Error; err != nil {
			return err
		}

		var reactionCount, commentCount int64
		if err := tx.Model(&models.Reaction{}).Where("post_id = ?", postID).Count(&reactionCount).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&commentCount).Error; err != nil {
			return err
		}

		score := Score(int(reactionCount), int(commentCount), post.CreatedAt, time.Now().UTC())

		return tx.Model(&models.Post{}).Where("id = ?", postID).Updates(map[string]interface{}{
			"reaction_count": reactionCount,
			"comment_count":  commentCount,
			"trending_score": score,
		}).Error
	})
}

// RecomputeAsync recomputes in the background; score refresh is best-effort
// and must never fail the mutation that triggered it.
func RecomputeAsync(db *gorm.DB, postID string) {
	go func() {
		if err := Recompute(db, postID); err != nil {
			logger.Log.Warn("trending score recompute failed",
				zap.String("post_id", postID),
				zap.Error(err),
			)
		}
	}()
}
