package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/whisperecho/backend/internal/database"
	"github.com/whisperecho/backend/internal/logger"
	"github.com/whisperecho/backend/internal/models"
	"github.com/whisperecho/backend/internal/util"
	"github.com/whisperecho/backend/internal/vanish"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxWhisperLen = 500

// whisperSession derives the anonymous session hash from the client IP and
// user agent. It is stable for a browser session but never resolvable back
// to an account.
func whisperSession(c *gin.Context) string {
	sum := sha256.Sum256([]byte(c.ClientIP() + c.Request.UserAgent()))
	return hex.EncodeToString(sum[:])
}

// CreateWhisper posts an anonymous whisper. No auth, no author record.
func (h *Handlers) CreateWhisper(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if len(req.Text) > maxWhisperLen {
		util.RespondValidationError(c, "text", "whisper too long")
		return
	}

	whisper := models.WhisperPost{
		Text:        req.Text,
		SessionHash: whisperSession(c),
	}
	if err := database.DB.Create(&whisper).Error; err != nil {
		logger.ErrorWithFields("Failed to create whisper", err)
		util.RespondInternalError(c, "failed to create whisper")
		return
	}

	c.JSON(http.StatusCreated, whisper)
}

// ListWhispers pages through live whispers, newest first. The 24h lifetime
// is enforced here; the sweep only reclaims rows the filter already hides.
func (h *Handlers) ListWhispers(c *gin.Context) {
	page, limit := util.ParsePage(c.Query("page"), c.Query("limit"), 50, 200)
	session := whisperSession(c)

	var whispers []models.WhisperPost
	err := database.DB.
		Where("created_at > ?", time.Now().Add(-vanish.WhisperTTL)).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&whispers).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load whispers")
		return
	}

	// Annotate which whispers this session has hearted
	ids := make([]string, 0, len(whispers))
	for _, w := range whispers {
		ids = append(ids, w.ID)
	}
	hearted := make(map[string]bool, len(ids))
	if len(ids) > 0 {
		var hearts []models.WhisperHeart
		if err := database.DB.Where("whisper_id IN ? AND session_hash = ?", ids, session).
			Find(&hearts).Error; err == nil {
			for _, heart := range hearts {
				hearted[heart.WhisperID] = true
			}
		}
	}

	type whisperView struct {
		models.WhisperPost
		Hearted bool `json:"hearted"`
	}
	views := make([]whisperView, 0, len(whispers))
	for _, w := range whispers {
		views = append(views, whisperView{WhisperPost: w, Hearted: hearted[w.ID]})
	}

	c.JSON(http.StatusOK, gin.H{
		"whispers": views,
		"page":     page,
		"limit":    limit,
	})
}

// HeartWhisper hearts a whisper once per anonymous session; repeated hearts
// are idempotent
func (h *Handlers) HeartWhisper(c *gin.Context) {
	whisperID := c.Param("id")
	session := whisperSession(c)

	var whisper models.WhisperPost
	err := database.DB.First(&whisper, "id = ?", whisperID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "whisper")
		return
	}
	// An expired whisper the sweep has not reclaimed yet reads as gone
	if err == nil && time.Since(whisper.CreatedAt) >= vanish.WhisperTTL {
		util.RespondNotFound(c, "whisper")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load whisper")
		return
	}

	heart := models.WhisperHeart{
		WhisperID:   whisperID,
		SessionHash: session,
	}
	res := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&heart)
	if res.Error != nil {
		util.RespondInternalError(c, "failed to heart whisper")
		return
	}

	// Only bump the counter when a new heart row actually landed
	if res.RowsAffected > 0 {
		if err := database.DB.Model(&models.WhisperPost{}).Where("id = ?", whisperID).
			UpdateColumn("heart_count", gorm.Expr("heart_count + 1")).Error; err != nil {
			logger.ErrorWithFields("Failed to bump heart count", err)
		}
	}

	database.DB.First(&whisper, "id = ?", whisperID)

	c.JSON(http.StatusOK, gin.H{
		"status":      "hearted",
		"whisper_id":  whisperID,
		"heart_count": whisper.HeartCount,
	})
}
