package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/whisperecho/backend/internal/auth"
	"github.com/whisperecho/backend/internal/cache"
	"github.com/whisperecho/backend/internal/database"
	"github.com/whisperecho/backend/internal/feed"
	"github.com/whisperecho/backend/internal/reactions"
	"github.com/whisperecho/backend/internal/storage"
	"github.com/whisperecho/backend/internal/streaks"
	"github.com/whisperecho/backend/internal/websocket"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	authService *auth.Service
	ledger      *reactions.Ledger
	composer    *feed.Composer
	tracker     *streaks.Tracker
	hub         *websocket.Hub
	uploader    storage.MediaUploader
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService *auth.Service, ledger *reactions.Ledger, composer *feed.Composer, tracker *streaks.Tracker) *Handlers {
	return &Handlers{
		authService: authService,
		ledger:      ledger,
		composer:    composer,
		tracker:     tracker,
	}
}

// SetHub sets the websocket hub for real-time event broadcasts
func (h *Handlers) SetHub(hub *websocket.Hub) {
	h.hub = hub
}

// SetUploader sets the media uploader backing the upload endpoints
func (h *Handlers) SetUploader(uploader storage.MediaUploader) {
	h.uploader = uploader
}

// Health reports process, database and cache health. A missing cache is
// reported but never degrades overall status; Redis is optional.
func (h *Handlers) Health(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"
	code := http.StatusOK

	if err := database.Health(); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
		code = http.StatusServiceUnavailable
	}

	cacheStatus := "disabled"
	if rc := cache.GetRedisClient(); rc != nil {
		cacheStatus = "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			cacheStatus = "unreachable"
		}
	}

	c.JSON(code, gin.H{
		"status":   status,
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}

// WSStats reports websocket hub metrics
func (h *Handlers) WSStats(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusOK, gin.H{"active_connections": 0})
		return
	}
	c.JSON(http.StatusOK, h.hub.GetMetrics())
}
