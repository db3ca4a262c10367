package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	SpaceID() string
	Send(data []byte) error
	Close() error
}

// Hub manages WebSocket connections organized by space
// It is safe for concurrent use
type Hub struct {
	// spaces maps space ID to a map of client ID to client
	spaces map[string]map[string]ClientInterface
	mu     sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		spaces: make(map[string]map[string]ClientInterface),
	}
}

// Register adds a client to the hub under its space
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	spaceID := client.SpaceID()
	clientID := client.ID()

	if h.spaces[spaceID] == nil {
		h.spaces[spaceID] = make(map[string]ClientInterface)
	}

	h.spaces[spaceID][clientID] = client

	log.Debug().
		Str("space_id", spaceID).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	spaceID := client.SpaceID()
	clientID := client.ID()

	if clients, ok := h.spaces[spaceID]; ok {
		if _, exists := clients[clientID]; exists {
			delete(clients, clientID)

			if len(clients) == 0 {
				delete(h.spaces, spaceID)
			}

			log.Debug().
				Str("space_id", spaceID).
				Str("client_id", clientID).
				Msg("WebSocket client unregistered")
		}
	}
}

// Broadcast sends an event to all clients watching a space
func (h *Hub) Broadcast(spaceID string, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("space_id", spaceID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	clients, ok := h.spaces[spaceID]
	if !ok || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy clients to avoid holding lock during send
	clientsCopy := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	for _, client := range clientsCopy {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Str("space_id", spaceID).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Str("space_id", spaceID).
		Str("event_type", event.Type).
		Int("client_count", len(clientsCopy)).
		Msg("Broadcast event")
}

// closeSpaceWith queues a final event for each client of the space and closes
// it. Clients flush the event before their connection is closed.
func (h *Hub) closeSpaceWith(spaceID string, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().Err(err).Str("space_id", spaceID).Msg("Failed to serialize event")
	}

	h.mu.Lock()
	clients := h.spaces[spaceID]
	delete(h.spaces, spaceID)
	h.mu.Unlock()

	for _, c := range clients {
		if data != nil {
			_ = c.Send(data)
		}
		_ = c.Close()
	}

	log.Info().
		Str("space_id", spaceID).
		Int("client_count", len(clients)).
		Msg("Closed WebSocket clients of deleted space")
}

// ClientCount returns the number of clients connected to a space
func (h *Hub) ClientCount(spaceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.spaces[spaceID]; ok {
		return len(clients)
	}
	return 0
}

// TotalClientCount returns the total number of connected clients across all spaces
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.spaces {
		total += len(clients)
	}
	return total
}
