// Package backend provides the WhisperEcho API server.

// The API documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/feed: Home and explore feed composition
// - internal/reactions: Per-post reaction ledger
// - internal/trending: Decay-weighted engagement scoring
// - internal/streaks: Consecutive-day posting streak tracking
// - internal/vanish: Post expiry policy and background sweep
// - internal/websocket: WebSocket server for real-time updates
// - internal/storage: File storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (rate limiting, etc.)
// - internal/cache: Redis client wrapper
// - internal/seed: Development data seeding

// See the individual package documentation for detailed API reference.
package backend
