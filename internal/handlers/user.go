package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/whisperecho/backend/internal/database"
	"github.com/whisperecho/backend/internal/logger"
	"github.com/whisperecho/backend/internal/models"
	"github.com/whisperecho/backend/internal/util"
	"github.com/whisperecho/backend/internal/websocket"
	"gorm.io/gorm"
)

// GetProfile returns a user's public profile
func (h *Handlers) GetProfile(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	err := database.DB.First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "user")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the caller's own profile fields
func (h *Handlers) UpdateProfile(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Bio       *string `json:"bio,omitempty"`
		AvatarURL *string `json:"avatar_url,omitempty"`
		Username  *string `json:"username,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.Username != nil {
		if len(*req.Username) < 3 || len(*req.Username) > 30 {
			util.RespondValidationError(c, "username", "must be 3-30 characters")
			return
		}
		var count int64
		database.DB.Model(&models.User{}).
			Where("LOWER(username) = LOWER(?) AND id <> ?", *req.Username, userID).
			Count(&count)
		if count > 0 {
			util.RespondConflict(c, "username")
			return
		}
		updates["username"] = *req.Username
	}

	if len(updates) == 0 {
		util.RespondBadRequest(c, "nothing to update")
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		logger.ErrorWithFields("Failed to update profile", err)
		util.RespondInternalError(c, "failed to update profile")
		return
	}

	var user models.User
	database.DB.First(&user, "id = ?", userID)
	c.JSON(http.StatusOK, user)
}

// UpdatePreferences replaces the caller's preferred category list
func (h *Handlers) UpdatePreferences(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Preferences []string `json:"preferences" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	for _, p := range req.Preferences {
		if !models.Category(p).Valid() {
			util.RespondValidationError(c, "preferences", "unknown category: "+p)
			return
		}
	}

	err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("preferences", models.StringArray(req.Preferences)).Error
	if err != nil {
		util.RespondInternalError(c, "failed to update preferences")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated", "preferences": req.Preferences})
}

// GetStreaks returns the caller's streak counters and stats
func (h *Handlers) GetStreaks(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		util.RespondInternalError(c, "failed to load user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"streaks": user.Streaks,
		"stats":   user.Stats,
	})
}

// Follow creates a follow edge from the caller to the target user
func (h *Handlers) Follow(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	if targetID == userID {
		util.RespondBadRequest(c, "cannot follow yourself")
		return
	}

	var target models.User
	err := database.DB.First(&target, "id = ?", targetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "user")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load user")
		return
	}

	var existing int64
	database.DB.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", userID, targetID).
		Count(&existing)
	if existing > 0 {
		util.RespondConflict(c, "follow")
		return
	}

	follow := models.Follow{FollowerID: userID, FolloweeID: targetID}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&follow).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", targetID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to create follow", err)
		util.RespondInternalError(c, "failed to follow")
		return
	}

	if h.hub != nil {
		var follower models.User
		if err := database.DB.First(&follower, "id = ?", userID).Error; err == nil {
			h.hub.SendToUser(targetID, websocket.NewMessage(websocket.MessageTypeNewFollower,
				websocket.FollowPayload{
					FollowerID:    follower.ID,
					FollowerName:  follower.Username,
					FollowerCount: target.FollowerCount + 1,
				}))
		}
	}

	c.JSON(http.StatusCreated, gin.H{"status": "following", "user_id": targetID})
}

// Unfollow removes the follow edge from the caller to the target user
func (h *Handlers) Unfollow(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	res := database.DB.Where("follower_id = ? AND followee_id = ?", userID, targetID).
		Delete(&models.Follow{})
	if res.Error != nil {
		util.RespondInternalError(c, "failed to unfollow")
		return
	}
	if res.RowsAffected == 0 {
		util.RespondNotFound(c, "follow")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ? AND follower_count > 0", targetID).
			UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ? AND following_count > 0", userID).
			UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to update follow counters", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "unfollowed", "user_id": targetID})
}

// GetFollowers pages through a user's followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	userID := c.Param("id")
	page, limit := util.ParsePage(c.Query("page"), c.Query("limit"), 50, 200)

	var follows []models.Follow
	err := database.DB.Preload("Follower").
		Where("followee_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&follows).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load followers")
		return
	}

	users := make([]models.User, 0, len(follows))
	for _, f := range follows {
		users = append(users, f.Follower)
	}

	c.JSON(http.StatusOK, gin.H{"followers": users, "page": page, "limit": limit})
}

// GetFollowing pages through the users someone follows
func (h *Handlers) GetFollowing(c *gin.Context) {
	userID := c.Param("id")
	page, limit := util.ParsePage(c.Query("page"), c.Query("limit"), 50, 200)

	var follows []models.Follow
	err := database.DB.Preload("Followee").
		Where("follower_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&follows).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load following")
		return
	}

	users := make([]models.User, 0, len(follows))
	for _, f := range follows {
		users = append(users, f.Followee)
	}

	c.JSON(http.StatusOK, gin.H{"following": users, "page": page, "limit": limit})
}
