package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tatianab/kitchen-wars/internal/logger"
	"github.com/tatianab/kitchen-wars/internal/models"
)

// Update is the message pushed to websocket subscribers.
type Update struct {
	Type    string         `json:"type"`
	Session models.Session `json:"session"`
}

type envelope struct {
	sessionID string
	payload   []byte
}

// Hub fans session updates out to the websocket clients watching each session.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	// done is closed when Run returns.
	done       chan struct{}
	mu         sync.Mutex
	logger     *logger.Logger
}

// NewHub initializes a hub. Run must be started before updates are delivered.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run handles registrations and broadcasts until ctx is done. On shutdown every
// client's send queue is closed, which ends its write pump.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("websocket hub shutting down")
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					h.remove(c)
				}
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.sessionID] == nil {
				h.clients[c.sessionID] = make(map[*Client]bool)
			}
			h.clients[c.sessionID][c] = true
			h.mu.Unlock()
			h.logger.Info("websocket client watching session %s", c.sessionID)
		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients[msg.sessionID] {
				select {
				case c.send <- msg.payload:
				default:
					h.remove(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// join registers c. It reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters c; it returns immediately once the hub has stopped.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(c *Client) {
	set := h.clients[c.sessionID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.sessionID)
	}
}

// Watchers reports how many clients follow a session.
func (h *Hub) Watchers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[sessionID])
}

// Publish queues s for its subscribers. It never blocks; updates are dropped when
// the queue is full.
func (h *Hub) Publish(s models.Session) {
	s.History = nil
	payload, err := json.Marshal(Update{Type: "session_updated", Session: s})
	if err != nil {
		h.logger.Error("serializing session update: %v", err)
		return
	}
	select {
	case h.broadcast <- envelope{sessionID: s.ID, payload: payload}:
	default:
		h.logger.Warn("dropping update for session %s: hub queue full", s.ID)
	}
}
