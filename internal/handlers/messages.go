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

const maxMessageLen = 2000

// SendMessage sends a private message to another user and delivers it to
// their user room in real time
func (h *Handlers) SendMessage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		ReceiverID string `json:"receiver_id" binding:"required"`
		Text       string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if req.ReceiverID == userID {
		util.RespondBadRequest(c, "cannot message yourself")
		return
	}
	if len(req.Text) > maxMessageLen {
		util.RespondValidationError(c, "text", "message too long")
		return
	}

	var receiver models.User
	err := database.DB.First(&receiver, "id = ?", req.ReceiverID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "user")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "failed to load receiver")
		return
	}

	message := models.Message{
		SenderID:   userID,
		ReceiverID: req.ReceiverID,
		Text:       req.Text,
	}
	if err := database.DB.Create(&message).Error; err != nil {
		logger.ErrorWithFields("Failed to create message", err)
		util.RespondInternalError(c, "failed to send message")
		return
	}

	if h.hub != nil {
		h.hub.SendToUser(req.ReceiverID, websocket.NewMessage(websocket.MessageTypeNewMessage,
			websocket.ChatPayload{
				MessageID: message.ID,
				SenderID:  userID,
				Username:  c.GetString("username"),
				Text:      message.Text,
				CreatedAt: message.CreatedAt.UnixMilli(),
			}))
	}

	c.JSON(http.StatusCreated, message)
}

// GetConversation pages through the message history between the caller and
// another user, newest first
func (h *Handlers) GetConversation(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	otherID := c.Param("id")
	page, limit := util.ParsePage(c.Query("page"), c.Query("limit"), 50, 200)

	var messages []models.Message
	err := database.DB.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&messages).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"page":     page,
		"limit":    limit,
	})
}

// GetConversations lists the caller's conversation partners with their
// latest message and unread count
func (h *Handlers) GetConversations(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	// Latest message per partner
	var latest []models.Message
	err := database.DB.Raw(`
		SELECT DISTINCT ON (partner) * FROM (
			SELECT *, CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS partner
			FROM messages
			WHERE sender_id = ? OR receiver_id = ?
		) m
		ORDER BY partner, created_at DESC`,
		userID, userID, userID).Scan(&latest).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load conversations")
		return
	}

	type conversation struct {
		Partner     models.User    `json:"partner"`
		LastMessage models.Message `json:"last_message"`
		UnreadCount int64          `json:"unread_count"`
	}

	conversations := make([]conversation, 0, len(latest))
	for _, msg := range latest {
		partnerID := msg.SenderID
		if partnerID == userID {
			partnerID = msg.ReceiverID
		}

		var partner models.User
		if err := database.DB.First(&partner, "id = ?", partnerID).Error; err != nil {
			continue
		}

		var unread int64
		database.DB.Model(&models.Message{}).
			Where("sender_id = ? AND receiver_id = ? AND is_read = false", partnerID, userID).
			Count(&unread)

		conversations = append(conversations, conversation{
			Partner:     partner,
			LastMessage: msg,
			UnreadCount: unread,
		})
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// MarkConversationRead marks every message from the other user as read
func (h *Handlers) MarkConversationRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	otherID := c.Param("id")

	res := database.DB.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = false", otherID, userID).
		Update("is_read", true)
	if res.Error != nil {
		util.RespondInternalError(c, "failed to mark read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "read", "updated": res.RowsAffected})
}
