package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tourneygate/internal/api/request"
	"github.com/mcoot/tourneygate/internal/api/response"
	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/services/registration"
)

// QueueHandler handles queue endpoints
type QueueHandler struct {
	controller *registration.Controller
	defaults   model.RegistrationConfig
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(controller *registration.Controller, defaults model.RegistrationConfig) *QueueHandler {
	return &QueueHandler{controller: controller, defaults: defaults}
}

// Join handles POST /api/v1/tournaments/{id}/queue
func (h *QueueHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinQueueRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	entry, err := h.controller.JoinQueue(r.Context(), tournamentID(r), model.UserID(req.UserID), req.Config.Resolve(h.defaults))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.QueueEntryFromModel(entry))
}

// Status handles GET /api/v1/tournaments/{id}/queue/{user_id}
func (h *QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	entry, err := h.controller.QueueStatus(r.Context(), tournamentID(r), model.UserID(mux.Vars(r)["user_id"]))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.QueueEntryFromModel(entry))
}

// Drain handles POST /api/v1/tournaments/{id}/queue/drain
func (h *QueueHandler) Drain(w http.ResponseWriter, r *http.Request) {
	var req request.DrainRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.BatchSize < 0 {
		WriteError(w, model.ErrInvalidBatch)
		return
	}

	cfg := h.defaults
	if req.BatchSize > 0 {
		cfg.QueueBatchSize = req.BatchSize
	}
	activated, err := h.controller.DrainQueue(r.Context(), tournamentID(r), cfg)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.DrainResponseFromModel(activated))
}
