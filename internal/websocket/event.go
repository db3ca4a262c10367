package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
	EventTypeJoined  EventType = "joined"
	EventTypeLeft    EventType = "left"
	EventTypeAdded   EventType = "added"
	EventTypeRemoved EventType = "removed"
	EventTypeRevoked EventType = "revoked"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeSpace    EntityType = "space"
	EntityTypeMember   EntityType = "member"
	EntityTypeMessage  EntityType = "message"
	EntityTypeDocument EntityType = "document"
	EntityTypeInvite   EntityType = "invite"
)

var spaceDeletedType = string(EntityTypeSpace) + "." + string(EventTypeDeleted)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, spaceId, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`    // Combined type e.g. "member.joined"
	Entity    EntityType  `json:"entity"`  // Entity type e.g. "member"
	SpaceID   string      `json:"spaceId"` // Space the event belongs to
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new event for the given space
func NewEvent(eventType EventType, entityType EntityType, spaceID string, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		SpaceID:   spaceID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SpaceCreated creates a space.created event
func SpaceCreated(spaceID string, payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeSpace, spaceID, payload)
}

// SpaceUpdated creates a space.updated event
func SpaceUpdated(spaceID string, payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeSpace, spaceID, payload)
}

// SpaceDeleted creates a space.deleted event
func SpaceDeleted(spaceID string) Event {
	return NewEvent(EventTypeDeleted, EntityTypeSpace, spaceID, map[string]string{"id": spaceID})
}

// MemberJoined creates a member.joined event
func MemberJoined(spaceID string, payload interface{}) Event {
	return NewEvent(EventTypeJoined, EntityTypeMember, spaceID, payload)
}

// MemberLeft creates a member.left event
func MemberLeft(spaceID string, payload interface{}) Event {
	return NewEvent(EventTypeLeft, EntityTypeMember, spaceID, payload)
}

// MessageCreated creates a message.created event
func MessageCreated(spaceID string, payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeMessage, spaceID, payload)
}

// DocumentAdded creates a document.added event
func DocumentAdded(spaceID string, payload interface{}) Event {
	return NewEvent(EventTypeAdded, EntityTypeDocument, spaceID, payload)
}

// DocumentRemoved creates a document.removed event
func DocumentRemoved(spaceID string, payload interface{}) Event {
	return NewEvent(EventTypeRemoved, EntityTypeDocument, spaceID, payload)
}

// InviteCreated creates an invite.created event. The token is never included.
func InviteCreated(spaceID string, expiresAt time.Time) Event {
	return NewEvent(EventTypeCreated, EntityTypeInvite, spaceID, map[string]interface{}{"expiresAt": expiresAt})
}

// InviteRevoked creates an invite.revoked event
func InviteRevoked(spaceID string) Event {
	return NewEvent(EventTypeRevoked, EntityTypeInvite, spaceID, nil)
}
