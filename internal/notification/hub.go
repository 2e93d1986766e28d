// internal/notification/hub.go

package notification

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced by the router; tokens are checked before upgrade
		return true
	},
}

// Event is what a listening client receives
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type delivery struct {
	userID string
	event  Event
}

// Hub keeps one set of websocket connections per user and fans events out
// to every connection that user has open
type Hub struct {
	clients    map[string]map[*Client]struct{}
	broadcast  chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	once       sync.Once

	mu     sync.RWMutex
	online map[string]int

	log *zap.Logger
}

// Client is one websocket connection
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan Event
	userID string
}

// NewHub creates a hub; call Run to start it
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		broadcast:  make(chan delivery, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		online:     make(map[string]int),
		log:        log.Named("hub"),
	}
}

// Run processes registrations and deliveries until Shutdown
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]struct{})
			}
			h.clients[client.userID][client] = struct{}{}
			h.setOnline(client.userID, len(h.clients[client.userID]))
			wsConnections.Inc()
			h.log.Debug("client connected", zap.String("user_id", client.userID))

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.broadcast:
			for client := range h.clients[d.userID] {
				select {
				case client.send <- d.event:
				default:
					h.remove(client)
				}
			}

		case <-h.done:
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = map[string]map[*Client]struct{}{}
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	wsConnections.Dec()
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	h.setOnline(client.userID, len(set))
	h.log.Debug("client disconnected", zap.String("user_id", client.userID))
}

func (h *Hub) setOnline(userID string, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n == 0 {
		delete(h.online, userID)
		return
	}
	h.online[userID] = n
}

// IsOnline reports whether the user has at least one open connection
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.online[userID] > 0
}

// Send queues an event for every connection of userID. It never blocks the
// caller; when the hub is saturated or stopped the event is dropped and the
// caller can rely on the stored notification instead.
func (h *Hub) Send(userID string, event Event) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.broadcast <- delivery{userID: userID, event: event}:
		return true
	default:
		h.log.Warn("hub saturated, dropping event", zap.String("user_id", userID), zap.String("type", event.Type))
		return false
	}
}

// Shutdown stops Run and closes every client
func (h *Hub) Shutdown() {
	h.once.Do(func() { close(h.done) })
}

// ServeWS upgrades the request for userID
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan Event, 64),
		userID: userID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
