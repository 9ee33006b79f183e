package handlers

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/safetytracker/safetytracker/internal/pkg/logger"
	"github.com/safetytracker/safetytracker/internal/pkg/worker"
	"github.com/safetytracker/safetytracker/internal/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// client serializes writes; gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

// Hub tracks websocket connections per user and tells them to refresh their
// notifications.
type Hub struct {
	mu             sync.RWMutex
	clients        map[uint]map[*client]bool
	pool           *worker.Pool
	allowedOrigins []string
}

func NewHub(pool *worker.Pool, allowedOrigins []string) *Hub {
	return &Hub{
		clients:        make(map[uint]map[*client]bool),
		pool:           pool,
		allowedOrigins: allowedOrigins,
	}
}

// Refresh pushes a refresh message to every connection of the given users.
// Sends run on the worker pool so callers never block on slow clients.
func (h *Hub) Refresh(userIDs ...uint) {
	for _, userID := range userIDs {
		userID := userID
		if h.pool == nil {
			h.broadcastRefresh(userID)
			continue
		}
		if err := h.pool.Submit(func(ctx context.Context) { h.broadcastRefresh(userID) }); err != nil {
			logger.Warn("Refresh push not queued", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
}

// Connections returns the number of open connections for a user.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) broadcastRefresh(userID uint) {
	h.mu.RLock()
	clients, exists := h.clients[userID]
	if !exists || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy so the lock is not held while writing.
	targets := make([]*client, 0, len(clients))
	for cl := range clients {
		targets = append(targets, cl)
	}
	h.mu.RUnlock()

	for _, cl := range targets {
		if err := cl.writeJSON(map[string]string{"type": "refresh"}); err != nil {
			logger.Debug("Failed to push refresh", zap.Uint("user_id", userID), zap.Error(err))
			h.remove(userID, cl)
			cl.conn.Close()
		}
	}
}

func (h *Hub) add(userID uint, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]bool)
	}
	h.clients[userID][cl] = true
}

func (h *Hub) remove(userID uint, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, exists := h.clients[userID]; exists {
		delete(clients, cl)
		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// Serve upgrades an authenticated request and keeps the connection open until
// the client goes away.
func (h *Hub) Serve(c *gin.Context) {
	user, err := utils.GetCurrentUser(c)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Debug("Failed to set initial read deadline", zap.Error(err))
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cl := &client{conn: conn}
	h.add(user.ID, cl)

	done := make(chan struct{})
	defer func() {
		close(done)
		h.remove(user.ID, cl)
		conn.Close()
		logger.Debug("WebSocket connection closed", zap.Uint("user_id", user.ID))
	}()

	if err := cl.writeJSON(map[string]string{"type": "connected"}); err != nil {
		logger.Debug("Failed to send welcome message", zap.Error(err))
		return
	}

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("WebSocket read error", zap.Uint("user_id", user.ID), zap.Error(err))
			}
			return
		}
	}
}
