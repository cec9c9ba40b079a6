package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns text[] as a string like "{value1,value2,value3}"
	str, ok := value.(string)
	if !ok {
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	*a = strings.Split(str, ",")
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// Streaks holds a user's consecutive-day posting counters.
// Invariant: CurrentStreak <= LongestStreak, LastPostDate never moves backwards.
type Streaks struct {
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	LastPostDate  *time.Time `json:"last_post_date,omitempty"`
}

// UserStats holds denormalized per-user counters
type UserStats struct {
	PostsCount     int `json:"posts_count"`
	CommentsCount  int `json:"comments_count"`
	ReactionsGiven int `json:"reactions_given"`
}

// User represents a WhisperEcho account
type User struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Bio      string `gorm:"type:text" json:"bio"`

	PasswordHash string `gorm:"type:text;not null" json:"-"`

	// Profile data
	AvatarURL string `json:"avatar_url"`

	// Feed signal: preferred post categories (subset of the Category enum)
	Preferences StringArray `gorm:"type:text[]" json:"preferences"`

	// Posting streak counters, updated best-effort after each post
	Streaks Streaks `gorm:"type:jsonb;serializer:json" json:"streaks"`

	// Cached counters, recomputable from the underlying tables
	Stats UserStats `gorm:"type:jsonb;serializer:json" json:"stats"`

	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`

	LastActiveAt *time.Time `json:"last_active_at"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Follow is a directed edge in the follow graph. The unique index on
// (follower_id, followee_id) allows at most one edge per ordered pair.
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	FollowerID string `gorm:"not null;uniqueIndex:idx_follows_edge" json:"follower_id"`
	Follower   User   `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	FolloweeID string `gorm:"not null;uniqueIndex:idx_follows_edge;index" json:"followee_id"`
	Followee   User   `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}

// BeforeCreate hooks for GORM
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
