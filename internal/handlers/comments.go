package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/whisperecho/backend/internal/database"
	"github.com/whisperecho/backend/internal/logger"
	"github.com/whisperecho/backend/internal/metrics"
	"github.com/whisperecho/backend/internal/models"
	"github.com/whisperecho/backend/internal/trending"
	"github.com/whisperecho/backend/internal/util"
	"github.com/whisperecho/backend/internal/websocket"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxCommentLen = 2000

// CreateComment adds a comment to a post
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req struct {
		Content     string `json:"content" binding:"required"`
		IsAnonymous bool   `json:"is_anonymous,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if len(req.Content) > maxCommentLen {
		util.RespondValidationError(c, "content", "comment too long")
		return
	}

	post, ok := h.visiblePost(c, postID)
	if !ok {
		return
	}

	comment := models.Comment{
		PostID:      postID,
		UserID:      userID,
		Content:     req.Content,
		IsAnonymous: req.IsAnonymous,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		logger.ErrorWithFields("Failed to create comment", err)
		util.RespondInternalError(c, "failed to create comment")
		return
	}

	metrics.Get().CommentsTotal.WithLabelValues(strconv.FormatBool(req.IsAnonymous)).Inc()
	trending.RecomputeAsync(database.DB, postID)
	bumpUserStat(userID, statCommentsCount, 1)

	if err := database.DB.Preload("User").First(&comment, "id = ?", comment.ID).Error; err == nil {
		h.announceComment(post, &comment)
	}

	c.JSON(http.StatusCreated, maskCommentAuthor(comment, userID))
}

// GetComments pages through a post's comments, oldest first
func (h *Handlers) GetComments(c *gin.Context) {
	postID := c.Param("id")
	viewerID := util.OptionalUserID(c)

	if _, ok := h.visiblePost(c, postID); !ok {
		return
	}

	page, limit := util.ParsePage(c.Query("page"), c.Query("limit"), 50, 200)

	var comments []models.Comment
	err := database.DB.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&comments).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load comments")
		return
	}

	masked := make([]models.Comment, 0, len(comments))
	for _, comment := range comments {
		masked = append(masked, maskCommentAuthor(comment, viewerID))
	}

	c.JSON(http.StatusOK, gin.H{
		"post_id":  postID,
		"comments": masked,
		"page":     page,
		"limit":    limit,
	})
}

// DeleteComment removes the caller's own comment
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	commentID := c.Param("commentId")

	var comment models.Comment
	err := database.DB.First(&comment, "id = ?", commentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "comment")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load comment")
		return
	}

	if comment.UserID != userID {
		util.RespondForbidden(c, "not your comment")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", commentID).Delete(&models.CommentReaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&comment).Error
	})
	if err != nil {
		util.RespondInternalError(c, "failed to delete comment")
		return
	}

	trending.RecomputeAsync(database.DB, comment.PostID)
	bumpUserStat(userID, statCommentsCount, -1)
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "comment_id": commentID})
}

// ReactToComment sets the caller's mini reaction (funny or love) on a
// comment, switching kinds when one is already held
func (h *Handlers) ReactToComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	commentID := c.Param("commentId")

	var req struct {
		Kind string `json:"kind" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	kind := models.CommentReactionKind(req.Kind)
	if !kind.Valid() {
		util.RespondValidationError(c, "kind", "must be funny or love")
		return
	}

	var comment models.Comment
	err := database.DB.First(&comment, "id = ?", commentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "comment")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load comment")
		return
	}

	reaction := models.CommentReaction{
		CommentID: commentID,
		UserID:    userID,
		Kind:      kind,
	}
	err = database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind"}),
	}).Create(&reaction).Error
	if err != nil {
		util.RespondInternalError(c, "failed to react")
		return
	}

	if err := refreshCommentCounts(commentID); err != nil {
		logger.ErrorWithFields("Failed to refresh comment counters", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "reacted",
		"comment_id": commentID,
		"kind":       kind,
	})
}

// UnreactToComment clears the caller's mini reaction on a comment
func (h *Handlers) UnreactToComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	commentID := c.Param("commentId")

	err := database.DB.Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&models.CommentReaction{}).Error
	if err != nil {
		util.RespondInternalError(c, "failed to remove reaction")
		return
	}

	if err := refreshCommentCounts(commentID); err != nil {
		logger.ErrorWithFields("Failed to refresh comment counters", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed", "comment_id": commentID})
}

// refreshCommentCounts recomputes the cached funny/love counters from the
// comment_reactions table
func refreshCommentCounts(commentID string) error {
	var funny, love int64
	if err := database.DB.Model(&models.CommentReaction{}).
		Where("comment_id = ? AND kind = ?", commentID, models.CommentReactionFunny).
		Count(&funny).Error; err != nil {
		return err
	}
	if err := database.DB.Model(&models.CommentReaction{}).
		Where("comment_id = ? AND kind = ?", commentID, models.CommentReactionLove).
		Count(&love).Error; err != nil {
		return err
	}
	return database.DB.Model(&models.Comment{}).Where("id = ?", commentID).
		Updates(map[string]interface{}{"funny_count": funny, "love_count": love}).Error
}

// maskCommentAuthor hides the author of anonymous comments from everyone
// but the author themselves
func maskCommentAuthor(comment models.Comment, viewerID string) models.Comment {
	if !comment.IsAnonymous || comment.UserID == viewerID {
		return comment
	}
	comment.UserID = ""
	comment.User = models.User{Username: "anonymous"}
	return comment
}

// announceComment broadcasts a new_comment event into the post's room
func (h *Handlers) announceComment(post *models.Post, comment *models.Comment) {
	if h.hub == nil {
		return
	}

	var count int64
	database.DB.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)

	payload := websocket.CommentPayload{
		CommentID:    comment.ID,
		PostID:       post.ID,
		Content:      comment.Content,
		IsAnonymous:  comment.IsAnonymous,
		CommentCount: int(count),
	}
	if comment.IsAnonymous {
		payload.Username = "anonymous"
	} else {
		payload.UserID = comment.UserID
		payload.Username = comment.User.Username
	}

	h.hub.BroadcastToRoom(websocket.PostRoom(post.ID),
		websocket.NewMessage(websocket.MessageTypeNewComment, payload))
}
