package handlers

import (
	"github.com/whisperecho/backend/internal/database"
	"github.com/whisperecho/backend/internal/logger"
	"go.uber.org/zap"
)

// Field names inside the users.stats jsonb blob
const (
	statPostsCount     = "posts_count"
	statCommentsCount  = "comments_count"
	statReactionsGiven = "reactions_given"
)

// bumpUserStat adjusts one cached counter in users.stats by delta, flooring
// at zero. Best-effort bookkeeping: a failure is logged and never fails the
// request that triggered it.
func bumpUserStat(userID, field string, delta int) {
	err := database.DB.Exec(
		`UPDATE users
		 SET stats = jsonb_set(
		     COALESCE(stats, '{}'::jsonb),
		     ARRAY[?]::text[],
		     to_jsonb(GREATEST(COALESCE((stats->>?)::int, 0) + ?, 0))
		 )
		 WHERE id = ?`,
		field, field, delta, userID).Error
	if err != nil {
		logger.Log.Warn("stats counter update failed",
			logger.WithUserID(userID),
			zap.String("field", field),
			zap.Error(err),
		)
	}
}
