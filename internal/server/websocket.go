package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

// WebSocket upgrader with permissive settings for local development
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const (
	// pingInterval keeps idle event streams alive through proxies
	pingInterval = 30 * time.Second

	// writeWait bounds a single frame write
	writeWait = 10 * time.Second

	// subscriberBuffer is the per-connection event backlog; slow
	// consumers lose events rather than stall publishers
	subscriberBuffer = 32
)

// Event is one message pushed to WebSocket subscribers
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type subscriber struct {
	events chan Event
}

// Hub fans call and session events out to WebSocket subscribers.
// Topics are call ids, session ids or the firehose topic "calls".
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*subscriber]struct{}
	done   chan struct{}
	closed bool
	logger *logging.Logger
}

// NewHub creates an empty event hub
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*subscriber]struct{}),
		done:   make(chan struct{}),
		logger: logging.New("events"),
	}
}

// Publish delivers an event to every subscriber of the topic. Delivery
// is best effort; a subscriber with a full buffer skips the event.
func (h *Hub) Publish(topic string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for sub := range h.topics[topic] {
		select {
		case sub.events <- ev:
		default:
			h.logger.Debug("Dropping event for slow subscriber", "topic", topic, "type", ev.Type)
		}
	}
}

// Subscribers returns the subscriber count for a topic
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close shuts down all event streams
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
}

func (h *Hub) subscribe(topic string) *subscriber {
	sub := &subscriber{events: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*subscriber]struct{})
	}
	h.topics[topic][sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(topic string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.topics[topic], sub)
	if len(h.topics[topic]) == 0 {
		delete(h.topics, topic)
	}
}

// ServeHTTP upgrades the connection and streams the topic named by the
// trailing path segment, e.g. /api/v1/events/42
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimPrefix(r.URL.Path, "/api/v1/events/")
	topic = strings.TrimSuffix(topic, "/")
	if topic == "" || strings.Contains(topic, "/") {
		http.Error(w, "missing event topic", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	sub := h.subscribe(topic)
	h.logger.Info("Event stream opened", "topic", topic, "remote", conn.RemoteAddr().String())

	h.stream(conn, topic, sub)
}

// stream pushes events to one connection until it closes
func (h *Hub) stream(conn *websocket.Conn, topic string, sub *subscriber) {
	defer func() {
		h.unsubscribe(topic, sub)
		conn.Close()
		h.logger.Info("Event stream closed", "topic", topic)
	}()

	// The subscriber never sends application data; the read loop only
	// notices closes and answers pings
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-sub.events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Error("WebSocket write error", "topic", topic, "error", err)
				}
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-h.done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}
