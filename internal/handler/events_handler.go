package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/viniuy/e-barangay/internal/access"
	"github.com/viniuy/e-barangay/internal/broker"
	"github.com/viniuy/e-barangay/internal/metrics"
	"github.com/viniuy/e-barangay/internal/middleware"
	"github.com/viniuy/e-barangay/pkg/logger"
)

const (
	maxConnectionLifetime = time.Hour
	writeWait             = 10 * time.Second
	pongWait              = 60 * time.Second
	pingPeriod            = (pongWait * 9) / 10
	maxMessageSize        = 1024
	clientBuffer          = 32
)

// EventHub pushes request events to connected websocket clients. Each client
// only receives events inside its own scope.
type EventHub struct {
	events   broker.EventBroker
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*eventClient]struct{}
}

type eventClient struct {
	conn        *websocket.Conn
	scope       *access.Scope
	send        chan broker.RequestEvent
	connectedAt time.Time
}

// NewEventHub builds a hub. An empty allowedOrigins list accepts any origin.
func NewEventHub(events broker.EventBroker, m *metrics.Metrics, allowedOrigins []string) *EventHub {
	h := &EventHub{
		events:  events,
		metrics: m,
		clients: make(map[*eventClient]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 {
				return true
			}
			for _, o := range allowedOrigins {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// Run fans broker events out to clients until ctx is cancelled.
func (h *EventHub) Run(ctx context.Context) error {
	ch, err := h.events.Subscribe(ctx)
	if err != nil {
		return err
	}
	for evt := range ch {
		h.dispatch(evt)
	}
	return nil
}

func (h *EventHub) dispatch(evt broker.RequestEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if !canSee(client.scope, evt) {
			continue
		}
		select {
		case client.send <- evt:
		default:
			logger.Log.Warn("Dropping event for slow client",
				zap.String("user_id", client.scope.UserID.String()),
				zap.String("request_id", evt.RequestID.String()),
			)
		}
	}
}

func canSee(scope *access.Scope, evt broker.RequestEvent) bool {
	switch {
	case scope.IsSuperAdmin():
		return true
	case scope.IsAdmin():
		return scope.BarangayID != nil && evt.BarangayID != nil && *scope.BarangayID == *evt.BarangayID
	case scope.IsUser():
		return evt.UserID == scope.UserID
	}
	return false
}

// Serve upgrades an authenticated request to a websocket.
func (h *EventHub) Serve(c *gin.Context) {
	scope := middleware.CurrentScope(c)
	if scope == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := &eventClient{
		conn:        conn,
		scope:       scope,
		send:        make(chan broker.RequestEvent, clientBuffer),
		connectedAt: time.Now(),
	}
	h.register(client)

	go h.writeLoop(client)
	h.readLoop(client)
}

func (h *EventHub) register(client *eventClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.ClientConnected()
	logger.Log.Info("Event client connected",
		zap.String("user_id", client.scope.UserID.String()),
		zap.String("role", string(client.scope.Role)),
		zap.Int("total", total),
	)
}

func (h *EventHub) unregister(client *eventClient) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.metrics.ClientDisconnected()
		logger.Log.Info("Event client disconnected",
			zap.String("user_id", client.scope.UserID.String()),
			zap.Duration("duration", time.Since(client.connectedAt).Round(time.Second)),
			zap.Int("remaining", total),
		)
	}
}

func (h *EventHub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readLoop only consumes control frames; clients never send data.
func (h *EventHub) readLoop(client *eventClient) {
	defer h.unregister(client)

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debug("Websocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writeLoop is the only writer on the connection.
func (h *EventHub) writeLoop(client *eventClient) {
	ticker := time.NewTicker(pingPeriod)
	lifetime := time.NewTimer(maxConnectionLifetime)
	defer func() {
		ticker.Stop()
		lifetime.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := client.conn.WriteJSON(evt); err != nil {
				logger.Log.Debug("Websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-lifetime.C:
			// clients reconnect, which re-checks the session
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = client.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "connection lifetime exceeded"))
			return
		}
	}
}
