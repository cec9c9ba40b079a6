package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/whisperecho/backend/internal/database"
	"github.com/whisperecho/backend/internal/metrics"
	"github.com/whisperecho/backend/internal/models"
	"github.com/whisperecho/backend/internal/reactions"
	"github.com/whisperecho/backend/internal/trending"
	"github.com/whisperecho/backend/internal/util"
	"github.com/whisperecho/backend/internal/vanish"
	"github.com/whisperecho/backend/internal/websocket"
	"gorm.io/gorm"
)

// SetReaction records or switches the caller's reaction on a post
func (h *Handlers) SetReaction(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req struct {
		Kind string `json:"kind" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	post, ok := h.visiblePost(c, postID)
	if !ok {
		return
	}

	kind, placed, err := h.ledger.Set(postID, userID, models.ReactionKind(req.Kind))
	if err != nil {
		if errors.Is(err, reactions.ErrInvalidKind) {
			util.RespondValidationError(c, "kind", "unknown reaction kind")
			return
		}
		util.RespondInternalError(c, "failed to set reaction")
		return
	}

	// Switching kinds is not a new reaction given
	if placed {
		bumpUserStat(userID, statReactionsGiven, 1)
	}

	metrics.Get().ReactionsTotal.WithLabelValues(string(kind)).Inc()
	trending.RecomputeAsync(database.DB, postID)
	h.announceReaction(post, userID, string(kind), false)

	c.JSON(http.StatusOK, gin.H{
		"status":  "reacted",
		"post_id": postID,
		"kind":    kind,
	})
}

// RemoveReaction clears the caller's reaction on a post; clearing a
// reaction that was never set is a no-op
func (h *Handlers) RemoveReaction(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	post, ok := h.visiblePost(c, postID)
	if !ok {
		return
	}

	removed, err := h.ledger.Remove(postID, userID)
	if err != nil {
		util.RespondInternalError(c, "failed to remove reaction")
		return
	}
	if removed {
		bumpUserStat(userID, statReactionsGiven, -1)
	}

	trending.RecomputeAsync(database.DB, postID)
	h.announceReaction(post, userID, "", true)

	c.JSON(http.StatusOK, gin.H{
		"status":  "removed",
		"post_id": postID,
	})
}

// GetReactions returns the per-kind counts for a post, plus the caller's
// held kind when authenticated
func (h *Handlers) GetReactions(c *gin.Context) {
	postID := c.Param("id")
	viewerID := util.OptionalUserID(c)

	if _, ok := h.visiblePost(c, postID); !ok {
		return
	}

	counts, err := h.ledger.CountsFor(postID)
	if err != nil {
		util.RespondInternalError(c, "failed to load reactions")
		return
	}

	resp := gin.H{
		"post_id": postID,
		"total":   counts.Total,
		"by_kind": counts.ByKind,
	}

	if viewerID != "" {
		held, err := h.ledger.Of(postID, viewerID)
		if err == nil && held != "" {
			resp["viewer_reaction"] = held
		}
	}

	c.JSON(http.StatusOK, resp)
}

// visiblePost loads a post and applies the vanish policy, responding 404
// when it is gone or hidden
func (h *Handlers) visiblePost(c *gin.Context, postID string) (*models.Post, bool) {
	var post models.Post
	err := database.DB.First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "post")
		return nil, false
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load post")
		return nil, false
	}
	if !vanish.IsVisible(&post, time.Now().UTC()) {
		util.RespondNotFound(c, "post")
		return nil, false
	}
	return &post, true
}

// announceReaction broadcasts a reaction change into the post's room
func (h *Handlers) announceReaction(post *models.Post, userID, kind string, removed bool) {
	if h.hub == nil {
		return
	}

	var count int64
	database.DB.Model(&models.Reaction{}).Where("post_id = ?", post.ID).Count(&count)

	h.hub.BroadcastToRoom(websocket.PostRoom(post.ID),
		websocket.NewMessage(websocket.MessageTypeNewReaction, websocket.ReactionPayload{
			PostID:        post.ID,
			UserID:        userID,
			Kind:          kind,
			Removed:       removed,
			ReactionCount: int(count),
		}))
}
