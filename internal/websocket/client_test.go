package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func joinRequest(room string) *Message {
	return NewMessage(MessageTypeJoinRoom, RoomPayload{Room: room})
}

func TestRoomFromPayloadAllowsFeedOwnAndPostRooms(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, "user-a", "alice")

	assert.Equal(t, FeedRoom, c.roomFromPayload(joinRequest(FeedRoom)))
	assert.Equal(t, "user:user-a", c.roomFromPayload(joinRequest(UserRoom("user-a"))))
	assert.Equal(t, "post:p1", c.roomFromPayload(joinRequest(PostRoom("p1"))))
}

func TestRoomFromPayloadRejectsOtherUserRooms(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, "user-a", "alice")

	assert.Empty(t, c.roomFromPayload(joinRequest(UserRoom("user-b"))))
	assert.Empty(t, c.roomFromPayload(joinRequest("admin")))
	assert.Empty(t, c.roomFromPayload(joinRequest("")))
}

func TestHandleJoinLeaveRoom(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, "user-a", "alice")

	c.handleMessage(joinRequest(FeedRoom))
	assert.Equal(t, 1, hub.RoomSize(FeedRoom))

	c.handleMessage(NewMessage(MessageTypeLeaveRoom, RoomPayload{Room: FeedRoom}))
	assert.Equal(t, 0, hub.RoomSize(FeedRoom))

	// A forbidden join never touches the hub
	c.handleMessage(joinRequest(UserRoom("user-b")))
	assert.Equal(t, 0, hub.RoomSize(UserRoom("user-b")))
}

func TestMessageRateLimiterBurst(t *testing.T) {
	rl := newMessageRateLimiter(10, 3)

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow(), "burst exhausted")
}

func TestSendAfterCloseFails(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, "user-a", "alice")

	assert.NoError(t, c.Send(NewMessage(MessageTypeSystem, nil)))

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	assert.Error(t, c.Send(NewMessage(MessageTypeSystem, nil)))
	assert.True(t, c.IsClosed())
}
