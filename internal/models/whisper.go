package models

import (
	"time"

	"gorm.io/gorm"
)

// WhisperPost is an anonymous WhisperWall entry. There is no author
// reference at all - only an opaque session hash so a poster can heart
// their own whisper at most once. The daily sweep hard-deletes whispers
// older than 24 hours.
type WhisperPost struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`

	Text string `gorm:"type:text;not null" json:"text"`

	// SHA-256 of IP + user agent, never resolvable back to a user
	SessionHash string `gorm:"not null;index" json:"-"`

	HeartCount int `gorm:"default:0" json:"heart_count"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName for whisper posts
func (WhisperPost) TableName() string {
	return "whisper_posts"
}

// WhisperHeart records one anonymous session hearting a whisper
type WhisperHeart struct {
	ID          string      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	WhisperID   string      `gorm:"not null;uniqueIndex:idx_whisper_hearts_unique" json:"whisper_id"`
	Whisper     WhisperPost `gorm:"foreignKey:WhisperID" json:"-"`
	SessionHash string      `gorm:"not null;uniqueIndex:idx_whisper_hearts_unique" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName for whisper hearts
func (WhisperHeart) TableName() string {
	return "whisper_hearts"
}

func (w *WhisperPost) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = generateUUID()
	}
	return nil
}

func (h *WhisperHeart) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = generateUUID()
	}
	return nil
}
