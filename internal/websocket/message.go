package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlexibleTime handles both Unix millisecond timestamps and RFC3339 strings
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON implements custom unmarshaling for timestamps
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	// Try Unix milliseconds first
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		ft.Time = time.UnixMilli(ms)
		return nil
	}

	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("timestamp must be Unix milliseconds (integer) or RFC3339 string")
	}

	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

// MarshalJSON implements custom marshaling (always output as RFC3339)
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.Time)
}

// Message types for WebSocket communication
const (
	// System messages
	MessageTypeSystem = "system"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
	MessageTypeError  = "error"

	// Room membership, sent by clients
	MessageTypeJoinRoom  = "join-room"
	MessageTypeLeaveRoom = "leave-room"

	// Activity events, sent by the server into rooms
	MessageTypeNewPost     = "new_post"
	MessageTypeNewComment  = "new_comment"
	MessageTypeNewReaction = "new_reaction"
	MessageTypeNewMessage  = "new_message"
	MessageTypeNewFollower = "new_follower"
)

// Well-known room name builders. Post rooms carry comment/reaction events
// for viewers of that post; user rooms carry messages and follow events.
func PostRoom(postID string) string { return "post:" + postID }
func UserRoom(userID string) string { return "user:" + userID }

// FeedRoom is the shared room every connected client may join for new_post
// events
const FeedRoom = "feed"

// Message represents a WebSocket message
type Message struct {
	// Type identifies the message type for routing
	Type string `json:"type"`

	// Room the message belongs to; empty for system traffic
	Room string `json:"room,omitempty"`

	// Payload contains the message-specific data
	Payload interface{} `json:"payload,omitempty"`

	// ID is a unique message identifier for acknowledgment
	ID string `json:"id,omitempty"`

	// ReplyTo references the original message ID for responses
	ReplyTo string `json:"reply_to,omitempty"`

	// Timestamp when the message was created (accepts Unix ms or RFC3339)
	Timestamp FlexibleTime `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewRoomMessage creates a message addressed to a room
func NewRoomMessage(msgType, room string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Room:      room,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(code string, message string) *Message {
	return &Message{
		Type: MessageTypeError,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// ErrorPayload represents an error message payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PingPayload represents a ping message payload
type PingPayload struct {
	ClientTime int64 `json:"client_time"`
}

// PongPayload represents a pong message payload
type PongPayload struct {
	ClientTime int64 `json:"client_time"`
	ServerTime int64 `json:"server_time"`
	Latency    int64 `json:"latency_ms"`
}

// RoomPayload is the payload for join-room / leave-room requests
type RoomPayload struct {
	Room string `json:"room"`
}

// NewPostPayload announces a post to the feed room
type NewPostPayload struct {
	PostID    string `json:"post_id"`
	AuthorID  string `json:"author_id,omitempty"`
	Username  string `json:"username"`
	Category  string `json:"category"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// CommentPayload announces a comment to a post room
type CommentPayload struct {
	CommentID    string `json:"comment_id"`
	PostID       string `json:"post_id"`
	UserID       string `json:"user_id,omitempty"`
	Username     string `json:"username"`
	Content      string `json:"content"`
	IsAnonymous  bool   `json:"is_anonymous,omitempty"`
	CommentCount int    `json:"comment_count"`
}

// ReactionPayload announces a reaction change to a post room
type ReactionPayload struct {
	PostID        string `json:"post_id"`
	UserID        string `json:"user_id"`
	Kind          string `json:"kind,omitempty"`
	Removed       bool   `json:"removed,omitempty"`
	ReactionCount int    `json:"reaction_count"`
}

// ChatPayload delivers a private message to the receiver's user room
type ChatPayload struct {
	MessageID string `json:"message_id"`
	SenderID  string `json:"sender_id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
}

// FollowPayload announces a new follower to the followee's user room
type FollowPayload struct {
	FollowerID    string `json:"follower_id"`
	FollowerName  string `json:"follower_name"`
	FollowerCount int    `json:"follower_count,omitempty"`
}

// SystemPayload represents system event payloads
type SystemPayload struct {
	Event   string                 `json:"event"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// ParsePayload unmarshals the payload into a specific type
func (m *Message) ParsePayload(target interface{}) error {
	if m.Payload == nil {
		return nil
	}

	// Re-marshal and unmarshal to properly type the payload
	data, err := json.Marshal(m.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
