package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFlexibleTimeUnmarshalUnixMillis(t *testing.T) {
	var ft FlexibleTime
	err := json.Unmarshal([]byte(`1714560000000`), &ft)

	assert.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1714560000000), ft.Time)
}

func TestFlexibleTimeUnmarshalRFC3339(t *testing.T) {
	var ft FlexibleTime
	err := json.Unmarshal([]byte(`"2025-05-01T12:00:00Z"`), &ft)

	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC), ft.Time)
}

func TestFlexibleTimeUnmarshalRejectsGarbage(t *testing.T) {
	var ft FlexibleTime
	assert.Error(t, json.Unmarshal([]byte(`"not a time"`), &ft))
	assert.Error(t, json.Unmarshal([]byte(`{"nested": true}`), &ft))
}

func TestRoomNameBuilders(t *testing.T) {
	assert.Equal(t, "post:abc123", PostRoom("abc123"))
	assert.Equal(t, "user:u1", UserRoom("u1"))
	assert.Equal(t, "feed", FeedRoom)

	assert.True(t, isPostRoom(PostRoom("abc123")))
	assert.False(t, isPostRoom(UserRoom("u1")))
	assert.False(t, isPostRoom(FeedRoom))
}

func TestParsePayloadTypesRoundTrip(t *testing.T) {
	msg := NewRoomMessage(MessageTypeNewReaction, PostRoom("p1"), ReactionPayload{
		PostID:        "p1",
		UserID:        "u1",
		Kind:          "funny",
		ReactionCount: 3,
	})

	// Simulate wire transit so Payload becomes a generic map
	data, err := json.Marshal(msg)
	assert.NoError(t, err)
	var decoded Message
	assert.NoError(t, json.Unmarshal(data, &decoded))

	var payload ReactionPayload
	assert.NoError(t, decoded.ParsePayload(&payload))
	assert.Equal(t, "p1", payload.PostID)
	assert.Equal(t, "funny", payload.Kind)
	assert.Equal(t, 3, payload.ReactionCount)
	assert.False(t, payload.Removed)
}

func TestParsePayloadNilPayload(t *testing.T) {
	msg := NewMessage(MessageTypePing, nil)

	var payload PingPayload
	assert.NoError(t, msg.ParsePayload(&payload))
	assert.Zero(t, payload.ClientTime)
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("unauthorized_room", "you may not join that room")

	assert.Equal(t, MessageTypeError, msg.Type)
	payload, ok := msg.Payload.(ErrorPayload)
	assert.True(t, ok)
	assert.Equal(t, "unauthorized_room", payload.Code)
	assert.False(t, msg.Timestamp.IsZero())
}
