package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveSpace runs a real server that registers every connection under spaceID
func serveSpace(t *testing.T, hub *Hub, spaceID string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn, spaceID, "u1", hub)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount(spaceID) == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func TestClient_SpaceDeletedIsDeliveredBeforeClose(t *testing.T) {
	hub := NewHub()
	conn := serveSpace(t, hub, "s1")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	hub.Publish("s1", SpaceDeleted("s1"))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"space.deleted"`)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Equal(t, 0, hub.ClientCount("s1"))
}

func TestClient_CloseFlushesQueuedMessages(t *testing.T) {
	hub := NewHub()
	conn := serveSpace(t, hub, "s1")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	hub.mu.RLock()
	var client ClientInterface
	for _, c := range hub.spaces["s1"] {
		client = c
	}
	hub.mu.RUnlock()

	require.NoError(t, client.Send([]byte(`{"n":1}`)))
	require.NoError(t, client.Send([]byte(`{"n":2}`)))
	require.NoError(t, client.Close())
	assert.ErrorIs(t, client.Send([]byte(`{"n":3}`)), ErrClientClosed)

	for _, want := range []string{`{"n":1}`, `{"n":2}`} {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestClient_PeerDisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	conn := serveSpace(t, hub, "s1")

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return hub.ClientCount("s1") == 0 }, time.Second, 5*time.Millisecond)
}
