package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetytracker/safetytracker/internal/models"
	"github.com/safetytracker/safetytracker/internal/types"
)

func newHubServer(t *testing.T, hub *Hub, userID uint) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ws/notifications/", func(c *gin.Context) {
		user := &models.User{Username: "mgr"}
		user.ID = userID
		c.Set(types.ContextUserKey, user)
		c.Next()
	}, hub.Serve)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications/"
}

func TestHub_RefreshReachesConnectedUser(t *testing.T) {
	hub := NewHub(nil, nil)
	srv := newHubServer(t, hub, 7)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)

	var msg map[string]string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "connected", msg["type"])
	assert.Eventually(t, func() bool { return hub.Connections(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	// Other users get nothing.
	hub.Refresh(8)
	hub.Refresh(7)
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "refresh", msg["type"])

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connections(7) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub(nil, []string{"http://localhost:3000"})
	srv := newHubServer(t, hub, 7)

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.Connections(7))

	header.Set("Origin", "http://localhost:3000")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Eventually(t, func() bool { return hub.Connections(7) == 1 }, 2*time.Second, 10*time.Millisecond)
}
