package sse

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mcoot/tourneygate/internal/api/response"
	"github.com/mcoot/tourneygate/internal/model"
)

// StatsEvent is the SSE event name for stats snapshots
const StatsEvent = "stats"

// HubManager owns one hub per streamed tournament and publishes monitor snapshots to them
type HubManager struct {
	hubs   map[model.TournamentID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.TournamentID]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for a tournament, starting one if needed
func (m *HubManager) GetOrCreateHub(id model.TournamentID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[id]; ok {
		return hub
	}
	hub := NewHub(id, m.logger)
	m.hubs[id] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a tournament, or nil
func (m *HubManager) GetHub(id model.TournamentID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[id]
}

// PublishStats pushes a snapshot to the tournament's subscribers, if any
func (m *HubManager) PublishStats(stats model.RealTimeStats) {
	hub := m.GetHub(stats.TournamentID)
	if hub == nil {
		return
	}
	data, err := StatsFrame(stats)
	if err != nil {
		m.logger.Error("failed to encode stats", slog.String("tournament_id", string(stats.TournamentID)), slog.Any("error", err))
		return
	}
	hub.BroadcastEvent(StatsEvent, data)
}

// StatsFrame encodes a snapshot as event data
func StatsFrame(stats model.RealTimeStats) (string, error) {
	data, err := json.Marshal(response.StatsFromModel(stats))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CleanupEmptyHubs closes hubs with no subscribers and returns how many were removed
func (m *HubManager) CleanupEmptyHubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, id)
			removed++
		}
	}
	return removed
}

// Close shuts down every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
