package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{"id": "u2", "name": "Bob"}

	before := time.Now()
	evt := NewEvent(EventTypeJoined, EntityTypeMember, "s1", payload)
	after := time.Now()

	assert.Equal(t, "member.joined", evt.Type)
	assert.Equal(t, EntityTypeMember, evt.Entity)
	assert.Equal(t, "s1", evt.SpaceID)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
	assert.Equal(t, time.UTC, evt.Timestamp.Location())
}

func TestEvent_ToJSON(t *testing.T) {
	evt := MessageCreated("s1", map[string]interface{}{"id": "m1", "content": "hi"})

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "message.created", decoded["type"])
	assert.Equal(t, "message", decoded["entity"])
	assert.Equal(t, "s1", decoded["spaceId"])
	assert.Contains(t, decoded, "timestamp")

	payload, ok := decoded["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "m1", payload["id"])
}

func TestEventHelpers(t *testing.T) {
	expiry := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		evt      Event
		wantType string
		entity   EntityType
	}{
		{"space created", SpaceCreated("s1", nil), "space.created", EntityTypeSpace},
		{"space updated", SpaceUpdated("s1", nil), "space.updated", EntityTypeSpace},
		{"space deleted", SpaceDeleted("s1"), "space.deleted", EntityTypeSpace},
		{"member joined", MemberJoined("s1", nil), "member.joined", EntityTypeMember},
		{"member left", MemberLeft("s1", nil), "member.left", EntityTypeMember},
		{"message created", MessageCreated("s1", nil), "message.created", EntityTypeMessage},
		{"document added", DocumentAdded("s1", nil), "document.added", EntityTypeDocument},
		{"document removed", DocumentRemoved("s1", nil), "document.removed", EntityTypeDocument},
		{"invite created", InviteCreated("s1", expiry), "invite.created", EntityTypeInvite},
		{"invite revoked", InviteRevoked("s1"), "invite.revoked", EntityTypeInvite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.evt.Type)
			assert.Equal(t, tt.entity, tt.evt.Entity)
			assert.Equal(t, "s1", tt.evt.SpaceID)
		})
	}
}

func TestInviteCreated_OmitsToken(t *testing.T) {
	expiry := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	data, err := InviteCreated("s1", expiry).ToJSON()
	require.NoError(t, err)

	assert.NotContains(t, string(data), "token")
	assert.Contains(t, string(data), "2026-05-01T10:00:00Z")
}
