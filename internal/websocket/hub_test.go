package websocket

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	spaceID  string
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id, spaceID string) *mockClient {
	return &mockClient{
		id:       id,
		spaceID:  spaceID,
		messages: make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) SpaceID() string {
	return m.spaceID
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", "space-a")
	client2 := newMockClient("client-2", "space-a")
	client3 := newMockClient("client-3", "space-b")

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 2, hub.ClientCount("space-a"))
	assert.Equal(t, 1, hub.ClientCount("space-b"))
	assert.Equal(t, 0, hub.ClientCount("missing"))
	assert.Equal(t, 3, hub.TotalClientCount())

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount("space-a"))

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.ClientCount("space-a"))
	assert.Equal(t, 0, hub.ClientCount("space-b"))
	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_Broadcast_SpaceIsolation(t *testing.T) {
	hub := NewHub()

	clientA1 := newMockClient("client-a1", "space-a")
	clientA2 := newMockClient("client-a2", "space-a")
	clientB := newMockClient("client-b", "space-b")

	hub.Register(clientA1)
	hub.Register(clientA2)
	hub.Register(clientB)

	hub.Broadcast("space-a", MessageCreated("space-a", map[string]interface{}{"id": "m1"}))

	assert.Eventually(t, func() bool {
		return len(clientA1.GetMessages()) == 1 && len(clientA2.GetMessages()) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(10 * time.Millisecond)
	assert.Len(t, clientB.GetMessages(), 0, "space-b client should not receive space-a events")
}

func TestHub_Broadcast_MultipleFanOut(t *testing.T) {
	hub := NewHub()

	clients := make([]*mockClient, 5)
	for i := 0; i < 5; i++ {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), "space-a")
		hub.Register(clients[i])
	}

	hub.Broadcast("space-a", MemberJoined("space-a", map[string]interface{}{"id": "u2"}))

	for i, c := range clients {
		assert.Eventually(t, func() bool { return len(c.GetMessages()) == 1 }, time.Second, 5*time.Millisecond, "client %d should receive message", i)
	}
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	clientCount := 50

	clients := make([]*mockClient, clientCount)
	for i := 0; i < clientCount; i++ {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), fmt.Sprintf("space-%d", i%5))
	}

	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, clientCount, hub.TotalClientCount())

	for i := 0; i < clientCount; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			spaceID := fmt.Sprintf("space-%d", idx%5)
			hub.Broadcast(spaceID, MessageCreated(spaceID, map[string]interface{}{"n": idx}))
		}(i)
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_UnregisterNonexistent(t *testing.T) {
	hub := NewHub()
	client := newMockClient("client-1", "space-a")

	require.NotPanics(t, func() {
		hub.Unregister(client)
	})
}

func TestHub_BroadcastToEmptySpace(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		hub.Broadcast("missing", SpaceDeleted("missing"))
	})
}
