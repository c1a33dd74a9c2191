package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/interfaces"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsEnvelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// WebSocketHandler pushes pipeline events to connected clients
type WebSocketHandler struct {
	events  interfaces.EventService
	logger  arbor.ILogger
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewWebSocketHandler creates a websocket handler and subscribes it to
// every pipeline event type
func NewWebSocketHandler(events interfaces.EventService, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		events:  events,
		logger:  logger,
		clients: make(map[*websocket.Conn]bool),
	}

	eventTypes := []interfaces.EventType{
		interfaces.EventEpisodeCreated,
		interfaces.EventEpisodeQueued,
		interfaces.EventRenderProgress,
		interfaces.EventAwaitingApproval,
		interfaces.EventRenderFailed,
		interfaces.EventEpisodePublished,
		interfaces.EventEpisodeRejected,
		interfaces.EventGenerationFailed,
	}
	for _, et := range eventTypes {
		if err := events.Subscribe(et, h.broadcast); err != nil {
			logger.Warn().Err(err).Str("event_type", string(et)).Msg("Failed to subscribe websocket broadcaster")
		}
	}

	return h
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug().Int("clients", count).Msg("WebSocket client connected")

	// Read loop exists only to observe the close
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *WebSocketHandler) broadcast(ctx context.Context, event interfaces.Event) error {
	msg := wsEnvelope{
		Type:      string(event.Type),
		Payload:   event.Payload,
		Timestamp: time.Now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
	return nil
}

func (h *WebSocketHandler) drop(conn *websocket.Conn) {
	conn.Close()
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// Close disconnects all clients
func (h *WebSocketHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
