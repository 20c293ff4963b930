package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"go-fog-detector/internal/logger"
	"go-fog-detector/pkg/models"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsSendBuffer   = 16
)

// Hub fans stream updates out to connected websocket clients. It implements
// stream.Publisher: the processing loop publishes once per frame and the hub
// forwards without ever blocking the loop; slow clients drop updates.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
}

type wsClient struct {
	conn *websocket.Conn
	send chan models.StreamUpdate
}

// NewHub creates an empty websocket hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The display frontend runs on a different origin in development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Publish forwards one update to every connected client. Non-blocking: a
// client whose buffer is full misses this update.
func (h *Hub) Publish(update models.StreamUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- update:
		default:
			logger.Debug("Dropping stream update for slow websocket client")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleConnection upgrades the request and serves the client until it
// disconnects.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan models.StreamUpdate, wsSendBuffer),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	logger.WithField("remote", conn.RemoteAddr().String()).Info("Websocket client connected")

	go h.writePump(client)
	h.readPump(client)
}

// writePump streams updates and periodic pings to one client.
func (h *Hub) writePump(client *wsClient) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-client.send:
			if !ok {
				client.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(wsWriteTimeout))
				return
			}
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := client.conn.WriteJSON(update); err != nil {
				h.remove(client)
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(client)
				return
			}
		}
	}
}

// readPump discards inbound messages and detects disconnects.
func (h *Hub) readPump(client *wsClient) {
	defer h.remove(client)
	client.conn.SetReadLimit(512)

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).Debug("Websocket client read error")
			}
			return
		}
	}
}

// remove unregisters a client and closes its connection. Safe to call from
// both pumps.
func (h *Hub) remove(client *wsClient) {
	h.mu.Lock()
	_, present := h.clients[client]
	if present {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()

	if present {
		client.conn.Close()
		logger.Info("Websocket client disconnected")
	}
}
