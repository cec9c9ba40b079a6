package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is a private chat message between two users. One row per message
// keyed by the conversation pair rather than an embedded thread document.
type Message struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SenderID   string `gorm:"not null;index:idx_messages_pair" json:"sender_id"`
	Sender     User   `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID string `gorm:"not null;index:idx_messages_pair" json:"receiver_id"`
	Receiver   User   `gorm:"foreignKey:ReceiverID" json:"-"`

	Text string `gorm:"type:text;not null" json:"text"`

	IsRead bool `gorm:"default:false" json:"is_read"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName for chat messages
func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}
