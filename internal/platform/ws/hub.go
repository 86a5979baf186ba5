// Package ws is the change-notification channel of the dashboard. Domain
// services push full-collection snapshots (patients, tasks) into the hub
// after every mutation; connected clients treat each push as a fresh
// evaluation input and recompute their views from scratch. No incremental
// diffing is attempted.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Well-known snapshot topics.
const (
	TopicPatients = "patients"
	TopicTasks    = "tasks"
)

// Snapshot is one full-collection push.
type Snapshot struct {
	Topic     string      `json:"topic"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// subscription message sent by clients.
type clientMessage struct {
	Action string   `json:"action"` // subscribe | unsubscribe
	Topics []string `json:"topics"`
}

type client struct {
	id     string
	send   chan []byte
	topics map[string]struct{}
}

// Hub fans snapshots out to subscribed clients. Safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) setTopics(c *client, action string, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range topics {
		switch action {
		case "subscribe":
			c.topics[t] = struct{}{}
		case "unsubscribe":
			delete(c.topics, t)
		}
	}
}

// PublishSnapshot broadcasts a full-collection snapshot to every client
// subscribed to the topic. Slow clients are skipped rather than blocked
// on; they will catch up on the next push.
func (h *Hub) PublishSnapshot(topic string, data interface{}) {
	payload, err := json.Marshal(Snapshot{
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("marshal snapshot")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if _, ok := c.topics[topic]; !ok {
			continue
		}
		select {
		case c.send <- payload:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscriberCount returns how many clients are subscribed to topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if _, ok := c.topics[topic]; ok {
			n++
		}
	}
	return n
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP connections and runs the read/write pumps.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (wh *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", wh.HandleConnect)
}

func (wh *Handler) HandleConnect(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{
		id:     uuid.New().String(),
		send:   make(chan []byte, 64),
		topics: make(map[string]struct{}),
	}
	wh.hub.register(cl)

	go wh.writePump(cl, conn)
	go wh.readPump(cl, conn)
	return nil
}

func (wh *Handler) readPump(cl *client, conn *gorillaws.Conn) {
	defer func() {
		wh.hub.unregister(cl)
		conn.Close()
	}()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		wh.hub.setTopics(cl, msg.Action, msg.Topics)
	}
}

func (wh *Handler) writePump(cl *client, conn *gorillaws.Conn) {
	defer conn.Close()
	for payload := range cl.send {
		if err := conn.WriteMessage(gorillaws.TextMessage, payload); err != nil {
			return
		}
	}
}
