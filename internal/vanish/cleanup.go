package vanish

import (
	"context"
	"time"

	"github.com/whisperecho/backend/internal/logger"
	"github.com/whisperecho/backend/internal/metrics"
	"github.com/whisperecho/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CleanupService periodically hard-deletes expired vanish-mode posts and
// WhisperWall posts past their 24h lifetime. The sweep reclaims storage
// only; IsVisible already hides expired rows on every read path.
type CleanupService struct {
	db       *gorm.DB
	ctx      context.Context
	cancel   context.CancelFunc
	interval time.Duration
}

// NewCleanupService creates a sweep service running on the given interval
func NewCleanupService(db *gorm.DB, interval time.Duration) *CleanupService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupService{
		db:       db,
		ctx:      ctx,
		cancel:   cancel,
		interval: interval,
	}
}

// Start begins the periodic sweep
func (s *CleanupService) Start() {
	logger.Log.Info("🧹 Starting vanish cleanup service",
		zap.Duration("interval", s.interval),
	)
	go s.run()
}

// Stop stops the sweep
func (s *CleanupService) Stop() {
	logger.Log.Info("🧹 Stopping vanish cleanup service")
	s.cancel()
}

func (s *CleanupService) run() {
	// Run once immediately so a long interval never leaves expired rows
	// from before a restart
	s.Sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.ctx.Done():
			return
		}
	}
}

// Sweep deletes expired vanish-mode posts (with their reactions and
// comments) and WhisperWall posts older than 24h. Also usable directly from
// the admin CLI.
func (s *CleanupService) Sweep() {
	startTime := time.Now()
	now := startTime.UTC()

	postsDeleted, err := s.sweepVanishedPosts(now)
	if err != nil {
		logger.Log.Error("vanish sweep failed", zap.Error(err))
	}

	whispersDeleted, err := s.sweepWhispers(now)
	if err != nil {
		logger.Log.Error("whisper sweep failed", zap.Error(err))
	}

	m := metrics.Get()
	m.PostsVanishedTotal.Add(float64(postsDeleted))
	m.WhispersSweptTotal.Add(float64(whispersDeleted))

	logger.Log.Info("✅ Vanish sweep complete",
		zap.Int64("posts_deleted", postsDeleted),
		zap.Int64("whispers_deleted", whispersDeleted),
		zap.Duration("duration", time.Since(startTime)),
	)
}

// sweepVanishedPosts removes posts whose VanishAt has passed, cascading the
// engagement rows first so no foreign key is left dangling
func (s *CleanupService) sweepVanishedPosts(now time.Time) (int64, error) {
	var expired []models.Post
	err := s.db.
		Where("(vanish_mode->>'enabled')::boolean IS TRUE AND (vanish_mode->>'vanish_at')::timestamptz < ?", now).
		Find(&expired).Error
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(expired))
	for _, p := range expired {
		ids = append(ids, p.ID)
	}

	var deleted int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id IN ?", ids).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		var commentIDs []string
		if err := tx.Model(&models.Comment{}).Where("post_id IN ?", ids).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentReaction{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("post_id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Post{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

// sweepWhispers removes WhisperWall posts older than 24h plus their hearts
func (s *CleanupService) sweepWhispers(now time.Time) (int64, error) {
	cutoff := now.Add(-WhisperTTL)

	var expiredIDs []string
	if err := s.db.Model(&models.WhisperPost{}).Where("created_at < ?", cutoff).Pluck("id", &expiredIDs).Error; err != nil {
		return 0, err
	}
	if len(expiredIDs) == 0 {
		return 0, nil
	}

	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("whisper_id IN ?", expiredIDs).Delete(&models.WhisperHeart{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", expiredIDs).Delete(&models.WhisperPost{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}
