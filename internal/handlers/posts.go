package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/whisperecho/backend/internal/database"
	"github.com/whisperecho/backend/internal/feed"
	"github.com/whisperecho/backend/internal/logger"
	"github.com/whisperecho/backend/internal/metrics"
	"github.com/whisperecho/backend/internal/models"
	"github.com/whisperecho/backend/internal/util"
	"github.com/whisperecho/backend/internal/vanish"
	"github.com/whisperecho/backend/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxPostTextLen = 5000

// CreatePost creates a new post for the authenticated user
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Text           string            `json:"text" binding:"required"`
		Media          []models.MediaRef `json:"media,omitempty"`
		Category       string            `json:"category" binding:"required"`
		Visibility     string            `json:"visibility,omitempty"`
		DisguiseAvatar string            `json:"disguise_avatar,omitempty"`
		VanishAfter    string            `json:"vanish_after,omitempty"` // "1hour" | "1day" | "1week"
		Tags           []string          `json:"tags,omitempty"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if len(req.Text) > maxPostTextLen {
		util.RespondValidationError(c, "text", "post text too long")
		return
	}

	category := models.Category(req.Category)
	if !category.Valid() {
		util.RespondValidationError(c, "category", "unknown category")
		return
	}

	visibility := models.VisibilityNormal
	if req.Visibility != "" {
		visibility = models.Visibility(req.Visibility)
		if !visibility.Valid() {
			util.RespondValidationError(c, "visibility", "must be normal or disguise")
			return
		}
	}

	now := time.Now().UTC()
	vanishMode, err := vanish.ModeFor(req.VanishAfter, now)
	if err != nil {
		util.RespondValidationError(c, "vanish_after", "must be 1hour, 1day or 1week")
		return
	}

	post := models.Post{
		AuthorID:       userID,
		Text:           req.Text,
		Media:          req.Media,
		Category:       category,
		Visibility:     visibility,
		DisguiseAvatar: req.DisguiseAvatar,
		VanishMode:     vanishMode,
		Tags:           req.Tags,
	}

	if err := database.DB.Create(&post).Error; err != nil {
		logger.ErrorWithFields("Failed to create post", err)
		util.RespondInternalError(c, "failed to create post")
		return
	}

	// Streak bookkeeping is best-effort; a failure never rolls back the post
	h.tracker.RecordPostAsync(userID, post.CreatedAt)
	bumpUserStat(userID, statPostsCount, 1)

	metrics.Get().PostsCreatedTotal.WithLabelValues(string(visibility)).Inc()
	feed.InvalidateExploreCache()

	if err := database.DB.Preload("Author").First(&post, "id = ?", post.ID).Error; err == nil {
		h.announcePost(&post)
	}

	annotated := feed.AnnotatedPost{Post: post}
	feed.MaskDisguise(&annotated.Post, userID)
	c.JSON(http.StatusCreated, annotated)
}

// announcePost broadcasts a new_post event into the shared feed room
func (h *Handlers) announcePost(post *models.Post) {
	if h.hub == nil {
		return
	}

	payload := websocket.NewPostPayload{
		PostID:   post.ID,
		Category: string(post.Category),
	}
	if post.Visibility == models.VisibilityDisguise {
		payload.Username = "anonymous"
		payload.AvatarURL = post.DisguiseAvatar
	} else {
		payload.AuthorID = post.AuthorID
		payload.Username = post.Author.Username
		payload.AvatarURL = post.Author.AvatarURL
	}

	h.hub.BroadcastToRoom(websocket.FeedRoom,
		websocket.NewMessage(websocket.MessageTypeNewPost, payload))
}

// GetPost fetches a single post by id, applying the visibility policy
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")
	viewerID := util.OptionalUserID(c)

	var post models.Post
	err := database.DB.Preload("Author").First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "post")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load post")
		return
	}

	// Vanished posts read as gone even before the sweep reclaims them
	if !vanish.IsVisible(&post, time.Now().UTC()) {
		util.RespondNotFound(c, "post")
		return
	}

	held, err := h.ledger.Of(post.ID, viewerID)
	if err != nil {
		logger.Log.Warn("failed to load viewer reaction", zap.Error(err))
	}

	annotated := feed.AnnotatedPost{Post: post, ViewerReaction: held}
	feed.MaskDisguise(&annotated.Post, viewerID)
	c.JSON(http.StatusOK, annotated)
}

// DeletePost removes the author's own post along with its engagement rows
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	err := database.DB.First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "post")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load post")
		return
	}

	if post.AuthorID != userID {
		util.RespondForbidden(c, "not your post")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		var commentIDs []string
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentReaction{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		logger.ErrorWithFields("Failed to delete post", err)
		util.RespondInternalError(c, "failed to delete post")
		return
	}

	bumpUserStat(userID, statPostsCount, -1)
	feed.InvalidateExploreCache()

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "post_id": postID})
}

// GetFeed returns the authenticated user's personalized home feed
func (h *Handlers) GetFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var viewer models.User
	if err := database.DB.First(&viewer, "id = ?", userID).Error; err != nil {
		util.RespondUnauthorized(c)
		return
	}

	page, limit := util.ParsePage(c.Query("page"), c.Query("limit"), 20, 100)

	result, err := h.composer.Home(&viewer, page, limit)
	if err != nil {
		logger.ErrorWithFields("Failed to compose feed", err)
		util.RespondInternalError(c, "failed to load feed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExplore returns the public discovery feed. Auth is optional; a token
// only adds viewer reaction annotations.
func (h *Handlers) GetExplore(c *gin.Context) {
	viewerID := util.OptionalUserID(c)

	sort := feed.ExploreSort(c.DefaultQuery("sort", string(feed.SortTrending)))
	if !sort.Valid() {
		util.RespondValidationError(c, "sort", "must be trending, recent or popular")
		return
	}

	var category models.Category
	if cat := c.Query("category"); cat != "" {
		category = models.Category(cat)
		if !category.Valid() {
			util.RespondValidationError(c, "category", "unknown category")
			return
		}
	}

	page, limit := util.ParsePage(c.Query("page"), c.Query("limit"), 20, 100)

	result, err := h.composer.Explore(sort, category, viewerID, page, limit)
	if err != nil {
		logger.ErrorWithFields("Failed to compose explore feed", err)
		util.RespondInternalError(c, "failed to load explore feed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUserPosts pages through one user's visible posts
func (h *Handlers) GetUserPosts(c *gin.Context) {
	targetID := c.Param("id")
	viewerID := util.OptionalUserID(c)

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

	page, limit := util.ParsePage(c.Query("page"), c.Query("limit"), 20, 100)

	result, err := h.composer.UserPosts(targetID, viewerID, page, limit)
	if err != nil {
		logger.ErrorWithFields("Failed to load user posts", err)
		util.RespondInternalError(c, "failed to load posts")
		return
	}

	c.JSON(http.StatusOK, result)
}
