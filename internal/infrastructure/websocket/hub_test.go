package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-platform/internal/domain"
	"auction-platform/pkg/logger"
)

func dialHub(t *testing.T, hub *CountdownHub, id string) *gorilla.Conn {
	t.Helper()

	upgrader := gorilla.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(id, conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestBroadcastReachesClient(t *testing.T) {
	hub := NewCountdownHub(logger.NewNop())
	client := dialHub(t, hub, "c-1")

	state := domain.WindowState{IsOpen: true, Hours: 3}
	hub.Broadcast(state)

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got domain.WindowState
	require.NoError(t, client.ReadJSON(&got))
	assert.True(t, got.IsOpen)
	assert.Equal(t, 3, got.Hours)
}

func TestBroadcastDropsBrokenClient(t *testing.T) {
	hub := NewCountdownHub(logger.NewNop())
	client := dialHub(t, hub, "c-1")
	require.Equal(t, 1, hub.Count())

	client.Close()

	// The write eventually fails and the hub evicts the connection.
	assert.Eventually(t, func() bool {
		hub.Broadcast(domain.WindowState{})
		return hub.Count() == 0
	}, 2*time.Second, 50*time.Millisecond)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := NewCountdownHub(logger.NewNop())
	dialHub(t, hub, "c-1")

	hub.Unregister("c-1")
	hub.Unregister("c-1")
	assert.Equal(t, 0, hub.Count())
}
