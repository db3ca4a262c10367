package websocket

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// EventPublisher defines the interface for publishing space events
type EventPublisher interface {
	// Publish sends an event to everyone watching the specified space
	Publish(spaceID string, event Event)
}

// Ensure Hub implements EventPublisher
var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting the event to the space.
// A space.deleted event is delivered and then the space's clients are disconnected.
func (h *Hub) Publish(spaceID string, event Event) {
	if event.Type == spaceDeletedType {
		h.closeSpaceWith(spaceID, event)
		return
	}
	h.Broadcast(spaceID, event)
}

// MultiPublisher fans an event out to several publishers
type MultiPublisher []EventPublisher

// Publish forwards the event to every publisher
func (m MultiPublisher) Publish(spaceID string, event Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(spaceID, event)
		}
	}
}

// natsConn is the subset of *nats.Conn used by NATSPublisher
type natsConn interface {
	Publish(subject string, data []byte) error
}

var _ natsConn = (*nats.Conn)(nil)

// NATSPublisher publishes space events on space.<id>.events
type NATSPublisher struct {
	conn natsConn
}

// NewNATSPublisher creates a publisher over an established NATS connection
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Subject returns the NATS subject events of a space are published on
func Subject(spaceID string) string {
	return fmt.Sprintf("space.%s.events", spaceID)
}

// Publish serializes the event and publishes it. Failures are logged only.
func (p *NATSPublisher) Publish(spaceID string, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().Err(err).Str("space_id", spaceID).Str("event_type", event.Type).Msg("Failed to serialize event")
		return
	}
	if err := p.conn.Publish(Subject(spaceID), data); err != nil {
		log.Warn().Err(err).Str("space_id", spaceID).Str("event_type", event.Type).Msg("Failed to publish event to NATS")
	}
}
