package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tourneygate/internal/api/request"
	"github.com/mcoot/tourneygate/internal/api/response"
	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/services/registration"
)

// LotteryHandler handles lottery read endpoints and administrative draws
type LotteryHandler struct {
	controller *registration.Controller
}

// NewLotteryHandler creates a new lottery handler
func NewLotteryHandler(controller *registration.Controller) *LotteryHandler {
	return &LotteryHandler{controller: controller}
}

// Status handles GET /api/v1/tournaments/{id}/lottery
func (h *LotteryHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := tournamentID(r)
	if _, err := h.controller.GetTournament(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	state, err := h.controller.LotteryState(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LotteryStatusFromModel(state))
}

// Winner handles GET /api/v1/tournaments/{id}/lottery/winners/{user_id}
func (h *LotteryHandler) Winner(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	winner, err := h.controller.IsLotteryWinner(r.Context(), tournamentID(r), model.UserID(userID))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.WinnerResponse{UserID: userID, Winner: winner})
}

// Result handles GET /api/v1/tournaments/{id}/lottery/result
func (h *LotteryHandler) Result(w http.ResponseWriter, r *http.Request) {
	result, err := h.controller.LotteryResult(r.Context(), tournamentID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LotteryResultFromModel(result))
}

// Draw handles POST /api/v1/tournaments/{id}/lottery/draw
func (h *LotteryHandler) Draw(w http.ResponseWriter, r *http.Request) {
	var req request.DrawRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.MaxWinners < 0 || req.WaitlistSize < 0 {
		WriteError(w, NewInvalidRequestError("max_winners and waitlist_size must not be negative"))
		return
	}

	result, err := h.controller.DrawLottery(r.Context(), tournamentID(r), model.LotterySettings{
		MaxWinners:   req.MaxWinners,
		WaitlistSize: req.WaitlistSize,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LotteryResultFromModel(result))
}
