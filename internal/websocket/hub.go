package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/websocket/v2"
	log "github.com/sirupsen/logrus"

	"scoreledger/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Heartbeat interval for version updates. Clients refetch a leaderboard
	// only when its period's version changes, at most once per heartbeat.
	versionHeartbeatInterval = 2 * time.Second

	// Message type sent to clients
	versionUpdateType = "VERSION_UPDATE"
)

// VersionSource reports the current cache version of every leaderboard period
type VersionSource interface {
	Versions(ctx context.Context) (map[models.Period]int64, error)
}

// Client represents a WebSocket client connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active clients and broadcasts version changes to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	source VersionSource

	// Closed when Run returns so connection goroutines never block on a stopped hub
	done chan struct{}

	mu sync.RWMutex

	// Last broadcast versions; only touched by the Run goroutine
	lastVersions map[models.Period]int64
}

// VersionUpdate represents the version heartbeat message
type VersionUpdate struct {
	Type     string                  `json:"type"`
	Versions map[models.Period]int64 `json:"versions"`
}

// NewHub creates a new WebSocket hub
func NewHub(source VersionSource) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		source:     source,
		done:       make(chan struct{}),
	}
}

// Run starts the WebSocket hub
func (h *Hub) Run(ctx context.Context) {
	log.Info("WebSocket hub started")
	defer close(h.done)

	versionTicker := time.NewTicker(versionHeartbeatInterval)
	defer versionTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.WithField("clients", count).Debug("WebSocket client connected")

			h.sendInitialVersions(ctx, client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.WithField("clients", count).Debug("WebSocket client disconnected")

		case <-versionTicker.C:
			h.checkAndBroadcast(ctx)

		case <-ctx.Done():
			log.Info("WebSocket hub shutting down")
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// checkAndBroadcast broadcasts the versions when any period changed since the last broadcast
func (h *Hub) checkAndBroadcast(ctx context.Context) {
	versions, err := h.source.Versions(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to get leaderboard versions")
		return
	}
	if !changed(h.lastVersions, versions) {
		return
	}
	h.lastVersions = versions

	message, err := json.Marshal(VersionUpdate{Type: versionUpdateType, Versions: versions})
	if err != nil {
		log.WithError(err).Error("Failed to marshal version update")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			log.Warn("Client send buffer full, skipping")
		}
	}
}

// sendInitialVersions sends the current versions to a newly connected client
func (h *Hub) sendInitialVersions(ctx context.Context, client *Client) {
	versions, err := h.source.Versions(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to get initial versions")
		return
	}
	if h.lastVersions == nil {
		h.lastVersions = versions
	}

	message, err := json.Marshal(VersionUpdate{Type: versionUpdateType, Versions: versions})
	if err != nil {
		log.WithError(err).Error("Failed to marshal initial versions")
		return
	}

	select {
	case client.send <- message:
	case <-time.After(2 * time.Second):
		log.Warn("Timeout sending initial versions, client may be slow")
	}
}

func changed(prev, next map[models.Period]int64) bool {
	if len(prev) != len(next) {
		return true
	}
	for p, v := range next {
		if prev[p] != v {
			return true
		}
	}
	return false
}

// join hands a new client to Run; it reports false once the hub has stopped
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave removes a client unless the hub already dropped it on shutdown
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// GetClientCount returns the current number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	for {
		// Incoming messages are ignored; the read only detects disconnects.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Debug("WebSocket unexpected close")
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	// The hub closed the channel
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ServeWS handles WebSocket requests from clients
func ServeWS(hub *Hub, conn *websocket.Conn) {
	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	if !hub.join(client) {
		return
	}

	go client.writePump()

	// Blocks until disconnect
	client.readPump()
}
