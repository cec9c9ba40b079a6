package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/whisperecho/backend/internal/auth"
	"github.com/whisperecho/backend/internal/cache"
	"github.com/whisperecho/backend/internal/database"
	"github.com/whisperecho/backend/internal/feed"
	"github.com/whisperecho/backend/internal/handlers"
	"github.com/whisperecho/backend/internal/logger"
	"github.com/whisperecho/backend/internal/metrics"
	"github.com/whisperecho/backend/internal/middleware"
	"github.com/whisperecho/backend/internal/reactions"
	"github.com/whisperecho/backend/internal/storage"
	"github.com/whisperecho/backend/internal/streaks"
	"github.com/whisperecho/backend/internal/vanish"
	"github.com/whisperecho/backend/internal/websocket"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables before anything reads them; a missing
	// .env just means the system environment is used
	_ = godotenv.Load()

	if err := logger.Initialize(
		getEnvOrDefault("LOG_LEVEL", "info"),
		getEnvOrDefault("LOG_FILE", "server.log"),
	); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Log.Info("=== WhisperEcho server starting ===")

	metrics.Initialize()

	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	// Redis backs the distributed rate limiter; the server runs without it
	// using the in-memory fallback
	if host := os.Getenv("REDIS_HOST"); host != "" {
		if _, err := cache.NewRedisClient(host, os.Getenv("REDIS_PORT"), os.Getenv("REDIS_PASSWORD")); err != nil {
			logger.Log.Warn("Redis unavailable, rate limiting falls back to in-memory", zap.Error(err))
		}
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}
	authService := auth.NewService(jwtSecret)

	ledger := reactions.NewLedger(database.DB)
	composer := feed.NewComposer(database.DB, ledger)
	tracker := streaks.NewTracker(database.DB)

	h := handlers.NewHandlers(authService, ledger, composer, tracker)

	// S3 media store; uploads fail cleanly when unconfigured
	if bucket := os.Getenv("AWS_BUCKET"); bucket != "" {
		uploader, err := storage.NewS3Uploader(
			getEnvOrDefault("AWS_REGION", "us-east-1"),
			bucket,
			os.Getenv("CDN_BASE_URL"),
		)
		if err != nil {
			logger.Log.Warn("S3 uploader unavailable, media uploads disabled", zap.Error(err))
		} else {
			h.SetUploader(uploader)
		}
	}

	wsHub := websocket.NewHub()
	wsHandler := websocket.NewHandler(wsHub, authService)
	go wsHub.Run()
	h.SetHub(wsHub)

	// Vanish sweep: daily by default, runs once at startup
	sweepInterval, err := time.ParseDuration(getEnvOrDefault("SWEEP_INTERVAL", "24h"))
	if err != nil {
		logger.Log.Fatal("invalid SWEEP_INTERVAL", zap.Error(err))
	}
	cleanup := vanish.NewCleanupService(database.DB, sweepInterval)
	cleanup.Start()
	defer cleanup.Stop()

	router := setupRouter(h, wsHandler)

	port := getEnvOrDefault("PORT", "8787")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logger.Log.Info("🚀 WhisperEcho backend listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wsHub.Shutdown(ctx); err != nil {
		logger.Log.Warn("WebSocket shutdown", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.FatalWithFields("Server forced to shutdown", err)
	}

	logger.Log.Info("Server exited")
}

func setupRouter(h *handlers.Handlers, wsHandler *websocket.Handler) *gin.Engine {
	if getEnvOrDefault("ENVIRONMENT", "development") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{getEnvOrDefault("CORS_ORIGIN", "*")}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.Use(middleware.RateLimitSmartDefault())

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", middleware.RateLimitSmartAuth(), h.Register)
			authGroup.POST("/login", middleware.RateLimitSmartAuth(), h.Login)
			authGroup.GET("/me", h.Me)
		}

		posts := api.Group("/posts")
		{
			posts.GET("/explore", h.OptionalAuthMiddleware(), h.GetExplore)
			posts.GET("/:id", h.OptionalAuthMiddleware(), h.GetPost)
			posts.GET("/:id/comments", h.OptionalAuthMiddleware(), h.GetComments)
			posts.GET("/:id/reactions", h.OptionalAuthMiddleware(), h.GetReactions)

			authed := posts.Group("")
			authed.Use(h.AuthMiddleware())
			{
				authed.POST("", h.CreatePost)
				authed.DELETE("/:id", h.DeletePost)
				authed.PUT("/:id/reactions", h.SetReaction)
				authed.DELETE("/:id/reactions", h.RemoveReaction)
				authed.POST("/:id/comments", h.CreateComment)
			}
		}

		comments := api.Group("/comments")
		{
			comments.Use(h.AuthMiddleware())
			comments.DELETE("/:commentId", h.DeleteComment)
			comments.PUT("/:commentId/reactions", h.ReactToComment)
			comments.DELETE("/:commentId/reactions", h.UnreactToComment)
		}

		feedGroup := api.Group("/feed")
		{
			feedGroup.Use(h.AuthMiddleware())
			feedGroup.GET("", h.GetFeed)
		}

		users := api.Group("/users")
		{
			users.GET("/:id", h.GetProfile)
			users.GET("/:id/posts", h.OptionalAuthMiddleware(), h.GetUserPosts)
			users.GET("/:id/followers", h.GetFollowers)
			users.GET("/:id/following", h.GetFollowing)

			authed := users.Group("")
			authed.Use(h.AuthMiddleware())
			{
				authed.PUT("/me", h.UpdateProfile)
				authed.PUT("/me/preferences", h.UpdatePreferences)
				authed.GET("/me/streaks", h.GetStreaks)
				authed.POST("/:id/follow", h.Follow)
				authed.DELETE("/:id/follow", h.Unfollow)
			}
		}

		messages := api.Group("/messages")
		{
			messages.Use(h.AuthMiddleware())
			messages.POST("", h.SendMessage)
			messages.GET("", h.GetConversations)
			messages.GET("/:id", h.GetConversation)
			messages.POST("/:id/read", h.MarkConversationRead)
		}

		whispers := api.Group("/whispers")
		{
			whispers.GET("", h.ListWhispers)
			whispers.POST("", middleware.RateLimitSmartWhisper(), h.CreateWhisper)
			whispers.POST("/:id/heart", middleware.RateLimitSmartWhisper(), h.HeartWhisper)
		}

		upload := api.Group("/upload")
		{
			upload.Use(h.AuthMiddleware(), middleware.RateLimitSmartUpload())
			upload.POST("/single", h.UploadSingle)
			upload.POST("/multiple", h.UploadMultiple)
		}

		ws := api.Group("/ws")
		{
			ws.GET("", wsHandler.HandleWebSocket)
			ws.GET("/connect", wsHandler.HandleWebSocket)
			ws.GET("/stats", h.AuthMiddleware(), h.WSStats)
		}
	}

	return r
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
