package handler

import (
	"net/http"

	"github.com/mcoot/tourneygate/internal/api/request"
	"github.com/mcoot/tourneygate/internal/api/response"
	"github.com/mcoot/tourneygate/internal/services/registration"
)

// TournamentHandler handles the administrative tournament catalog endpoints
type TournamentHandler struct {
	controller *registration.Controller
}

// NewTournamentHandler creates a new tournament handler
func NewTournamentHandler(controller *registration.Controller) *TournamentHandler {
	return &TournamentHandler{controller: controller}
}

// Put handles PUT /api/v1/tournaments/{id}
func (h *TournamentHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req request.PutTournamentRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	t, err := h.controller.PutTournament(r.Context(), req.ToModel(tournamentID(r)))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.TournamentFromModel(t))
}

// Get handles GET /api/v1/tournaments/{id}
func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.controller.GetTournament(r.Context(), tournamentID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.TournamentFromModel(t))
}

// List handles GET /api/v1/tournaments
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.controller.ListTournaments(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.TournamentList{Tournaments: make([]response.Tournament, 0, len(list))}
	for _, t := range list {
		resp.Tournaments = append(resp.Tournaments, response.TournamentFromModel(t))
	}
	response.JSON(w, http.StatusOK, resp)
}
