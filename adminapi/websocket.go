package adminapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dynacluster/dynacluster/cluster"
)

// WebSocket message types, narrowed from pkg/api/websocket.go's set to the
// events a cluster controller actually emits.
const (
	MessageTypeHeartbeat        = "heartbeat"
	MessageTypeSensorChanged    = "sensor_changed"
	MessageTypeEntityQuarantined = "entity_quarantined"
	MessageTypeError            = "error"
	MessageTypeSubscribe        = "subscribe"
	MessageTypeUnsubscribe      = "unsubscribe"
)

// Message is a single WebSocket envelope.
type Message struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Client is a single connected WebSocket subscriber. Grounded on
// pkg/api/websocket.go's WebSocketClient.
type Client struct {
	id            string
	conn          *websocket.Conn
	send          chan Message
	hub           *Hub
	mu            sync.RWMutex
	subscriptions map[string]bool
}

// Hub fans cluster events out to every connected client. Grounded on
// pkg/api/websocket.go's WebSocketHub: same register/unregister/broadcast
// channel trio and heartbeat ticker, repurposed to carry cluster sensor
// events instead of node-status/model-update events.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	logger     *slog.Logger
	done       chan struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewHub builds an idle hub; call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run drives the hub's event loop until Stop is called.
func (h *Hub) Run() {
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-h.done:
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("websocket client connected", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.RUnlock()

		case <-heartbeat.C:
			h.Broadcast(Message{Type: MessageTypeHeartbeat, Timestamp: time.Now()})
		}
	}
}

// Stop shuts the hub down and disconnects every client.
func (h *Hub) Stop() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.conn.Close()
		close(client.send)
		delete(h.clients, client)
	}
}

// Broadcast enqueues a message for every connected client, dropping it if
// the broadcast channel is saturated rather than blocking the caller.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast channel full, dropping message")
	}
}

// Emit implements cluster.EventSink: every sensor change on any controller
// wired to this hub is broadcast as a sensor_changed message, and the
// quarantine sensor additionally as entity_quarantined.
func (h *Hub) Emit(clusterID, sensor string, value any) {
	h.Broadcast(Message{
		Type:      MessageTypeSensorChanged,
		Timestamp: time.Now(),
		Data: map[string]any{
			"cluster_id": clusterID,
			"sensor":     sensor,
			"value":      value,
		},
	})
	if sensor == cluster.SensorEntityQuarantined {
		h.Broadcast(Message{
			Type:      MessageTypeEntityQuarantined,
			Timestamp: time.Now(),
			Data: map[string]any{
				"cluster_id": clusterID,
				"value":      value,
			},
		})
	}
}

// ConnectedClients reports the current subscriber count, for tests and the
// health handler.
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleWebSocket upgrades the connection and starts its read/write pumps.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{
		id:            uuid.NewString(),
		conn:          conn,
		send:          make(chan Message, 256),
		hub:           s.hub,
		subscriptions: make(map[string]bool),
	}
	s.hub.register <- client
	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ cluster.EventSink = (*Hub)(nil)
