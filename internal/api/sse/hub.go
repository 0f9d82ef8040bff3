package sse

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/tourneygate/internal/model"
)

// Hub fans stats events out to the stream subscribers of one tournament
type Hub struct {
	tournamentID model.TournamentID
	clients      map[*Client]struct{}
	mu           sync.RWMutex
	logger       *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub creates a new Hub for a tournament
func NewHub(id model.TournamentID, logger *slog.Logger) *Hub {
	return &Hub{
		tournamentID: id,
		clients:      make(map[*Client]struct{}),
		logger:       logger.With(slog.String("tournament_id", string(id))),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		broadcast:    make(chan []byte, 64),
		done:         make(chan struct{}),
	}
}

// Run starts the hub's event loop. It returns once Close is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("stats subscriber connected",
				slog.String("remote", client.remote),
				slog.Int("subscribers", n))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("stats subscriber disconnected",
				slog.String("remote", client.remote),
				slog.Duration("connected_for", time.Since(client.connectedAt)),
				slog.Int("subscribers", n))

		case message := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("stats event dropped for slow subscribers", slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastEvent queues a named event for every subscriber
func (h *Hub) BroadcastEvent(event, data string) {
	select {
	case h.broadcast <- FormatMessage(event, data):
	default:
		h.logger.Warn("stats broadcast dropped, hub buffer full")
	}
}

// Close shuts down the hub and disconnects its subscribers
func (h *Hub) Close() {
	close(h.done)
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// FormatMessage renders an SSE frame. Every data line gets its own "data: " prefix.
func FormatMessage(event, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteByte('\n')
	data = strings.ReplaceAll(data, "\r", "")
	for _, line := range strings.Split(strings.TrimSuffix(data, "\n"), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
