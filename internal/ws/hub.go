package ws

import (
	"encoding/json"
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

// Hub manages WebSocket connections and channel subscriptions. Each
// logged-in client is subscribed to its own user channel plus any demand
// channels it asks for, and receives lifecycle events published on them.
type Hub struct {
	mu      sync.RWMutex
	conns   map[*Conn]bool
	subs    map[string]map[*Conn]bool // channel -> connections
	publish chan Event
	log     *zap.Logger
}

// Conn represents a WebSocket connection
type Conn struct {
	ws     *websocket.Conn
	send   chan []byte
	hub    *Hub
	userID string
	subs   map[string]bool
}

// Event represents a message to be published
type Event struct {
	Channel string
	Message map[string]interface{}
}

// NewHub creates a new WebSocket hub
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		conns:   make(map[*Conn]bool),
		subs:    make(map[string]map[*Conn]bool),
		publish: make(chan Event, 256),
		log:     log,
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for event := range h.publish {
		h.mu.RLock()
		conns := make([]*Conn, 0, len(h.subs[event.Channel]))
		for conn := range h.subs[event.Channel] {
			conns = append(conns, conn)
		}
		h.mu.RUnlock()

		if len(conns) == 0 {
			continue
		}
		msg, _ := json.Marshal(map[string]interface{}{
			"channel": event.Channel,
			"event":   event.Message,
		})
		for _, conn := range conns {
			select {
			case conn.send <- msg:
			default:
				h.unregister(conn)
			}
		}
	}
}

// Publish queues an event for delivery to subscribers of a channel.
func (h *Hub) Publish(channel string, message map[string]interface{}) {
	select {
	case h.publish <- Event{Channel: channel, Message: message}:
	default:
		h.log.Warn("WebSocket publish queue full, dropping event", zap.String("channel", channel))
	}
}

func (h *Hub) register(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
}

func (h *Hub) unregister(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		close(conn.send)
		for channel := range conn.subs {
			if subs := h.subs[channel]; subs != nil {
				delete(subs, conn)
				if len(subs) == 0 {
					delete(h.subs, channel)
				}
			}
		}
	}
}

// Subscribe adds a connection to a channel
func (h *Hub) Subscribe(conn *Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[*Conn]bool)
	}
	h.subs[channel][conn] = true
	conn.subs[channel] = true
}

// Unsubscribe removes a connection from a channel
func (h *Hub) Unsubscribe(conn *Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.subs[channel]; subs != nil {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.subs, channel)
		}
	}
	delete(conn.subs, channel)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeConn upgrades an HTTP request and runs the connection until it
// drops. A non-empty userID subscribes the client to its own channel.
func (h *Hub) ServeConn(w http.ResponseWriter, r *http.Request, userID string) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Conn{
		ws:     wsConn,
		send:   make(chan []byte, 64),
		hub:    h,
		userID: userID,
		subs:   make(map[string]bool),
	}
	h.register(conn)
	if userID != "" {
		h.Subscribe(conn, "user:"+userID)
	}

	go conn.writePump()
	conn.readPump()
}

type clientCommand struct {
	Action  string `json:"action"` // "subscribe" or "unsubscribe"
	Channel string `json:"channel"`
}

func (c *Conn) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.ws.Close()
	}()
	c.ws.SetReadLimit(4096)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var cmd clientCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}
		switch cmd.Action {
		case "subscribe":
			if cmd.Channel != "" {
				c.hub.Subscribe(c, cmd.Channel)
			}
		case "unsubscribe":
			if cmd.Channel != "" {
				c.hub.Unsubscribe(c, cmd.Channel)
			}
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
