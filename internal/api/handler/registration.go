package handler

import (
	"net/http"

	"github.com/mcoot/tourneygate/internal/api/request"
	"github.com/mcoot/tourneygate/internal/api/response"
	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/services/registration"
)

// RegistrationHandler handles registration attempts. Every attempt is answered with
// 200 and its outcome in the body; policy rejections are not HTTP errors.
type RegistrationHandler struct {
	controller *registration.Controller
	defaults   model.RegistrationConfig
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(controller *registration.Controller, defaults model.RegistrationConfig) *RegistrationHandler {
	return &RegistrationHandler{controller: controller, defaults: defaults}
}

// Register handles POST /api/v1/tournaments/{id}/registrations
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	attempt := h.controller.Register(r.Context(), model.UserID(req.UserID), tournamentID(r), req.Config.Resolve(h.defaults))
	response.JSON(w, http.StatusOK, response.AttemptFromModel(attempt))
}

// Retry handles POST /api/v1/tournaments/{id}/registrations/retry
func (h *RegistrationHandler) Retry(w http.ResponseWriter, r *http.Request) {
	var req request.RetryRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Previous.RetryCount < 0 {
		WriteError(w, NewInvalidRequestError("retry_count must not be negative"))
		return
	}

	previous := &model.RegistrationAttempt{
		ID:           req.Previous.ID,
		UserID:       model.UserID(req.Previous.UserID),
		TournamentID: tournamentID(r),
		RetryCount:   req.Previous.RetryCount,
	}
	attempt := h.controller.RegisterRetry(r.Context(), previous, req.Config.Resolve(h.defaults))
	response.JSON(w, http.StatusOK, response.AttemptFromModel(attempt))
}

// EnterLottery handles POST /api/v1/tournaments/{id}/lottery/entries
func (h *RegistrationHandler) EnterLottery(w http.ResponseWriter, r *http.Request) {
	var req request.LotteryEntryRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	attempt := h.controller.EnterLottery(r.Context(), model.UserID(req.UserID), tournamentID(r))
	response.JSON(w, http.StatusOK, response.AttemptFromModel(attempt))
}
