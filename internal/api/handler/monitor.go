package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/tourneygate/internal/api/response"
	"github.com/mcoot/tourneygate/internal/api/sse"
	"github.com/mcoot/tourneygate/internal/services/monitor"
	"github.com/mcoot/tourneygate/internal/services/registration"
)

// MonitorHandler serves health and stats snapshots
type MonitorHandler struct {
	monitor    *monitor.Service
	controller *registration.Controller
	hubs       *sse.HubManager
	logger     *slog.Logger
}

// NewMonitorHandler creates a new monitor handler
func NewMonitorHandler(monitor *monitor.Service, controller *registration.Controller, hubs *sse.HubManager, logger *slog.Logger) *MonitorHandler {
	return &MonitorHandler{
		monitor:    monitor,
		controller: controller,
		hubs:       hubs,
		logger:     logger,
	}
}

// Health handles GET /api/v1/health
func (h *MonitorHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.SystemHealthFromModel(h.monitor.SystemHealth()))
}

// Stats handles GET /api/v1/tournaments/{id}/stats
func (h *MonitorHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id := tournamentID(r)
	if _, err := h.controller.GetTournament(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.StatsFromModel(h.monitor.RealTimeStats(id)))
}

// StatsStream handles GET /api/v1/tournaments/{id}/stats/stream. The current snapshot
// is sent immediately, then one event per monitor refresh.
func (h *MonitorHandler) StatsStream(w http.ResponseWriter, r *http.Request) {
	id := tournamentID(r)
	if _, err := h.controller.GetTournament(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	data, err := sse.StatsFrame(h.monitor.RealTimeStats(id))
	if err != nil {
		h.logger.Error("failed to encode stats", slog.String("tournament_id", string(id)), slog.Any("error", err))
		WriteError(w, err)
		return
	}
	sse.ServeSSE(w, r, h.hubs.GetOrCreateHub(id), sse.FormatMessage(sse.StatsEvent, data))
}
