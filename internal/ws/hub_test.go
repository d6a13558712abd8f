package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waz-calendar/internal/auth"
	"waz-calendar/internal/bus"
)

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient("alice", nil, ConnInfo{Username: "alice"})
	assert.True(t, hub.IsOnline("alice"))
	assert.Equal(t, []string{"alice"}, hub.Connected())

	assert.True(t, hub.RemoveClient("alice", nil))
	assert.False(t, hub.RemoveClient("alice", nil))
	assert.False(t, hub.IsOnline("alice"))
	assert.Empty(t, hub.clients)
}

type staticVerifier map[string]string

func (v staticVerifier) Verify(token string) (*auth.Session, error) {
	username, ok := v[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &auth.Session{Username: username}, nil
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", NewHandler(hub, staticVerifier{"token-alice": "alice"}).Handle)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestHandlerRejectsInvalidToken(t *testing.T) {
	server := newTestServer(t, NewHub())

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server)+"?token=nope", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandlerDeliversBusMessages(t *testing.T) {
	hub := NewHub()
	server := newTestServer(t, hub)

	header := http.Header{"Authorization": []string{"Bearer token-alice"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.IsOnline("alice") }, time.Second, 10*time.Millisecond)

	hub.Deliver(context.Background(), bus.Message{Type: bus.TypeUnreadCount, To: "alice", Payload: map[string]int{"count": 3}})
	hub.Deliver(context.Background(), bus.Message{Type: bus.TypeUnreadCount, To: "bob"})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var got struct {
		Type    string         `json:"type"`
		To      string         `json:"to"`
		Payload map[string]int `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, bus.TypeUnreadCount, got.Type)
	assert.Equal(t, "alice", got.To)
	assert.Equal(t, 3, got.Payload["count"])

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return !hub.IsOnline("alice") }, time.Second, 10*time.Millisecond)
}
