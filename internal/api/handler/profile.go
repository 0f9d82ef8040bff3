package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tourneygate/internal/api/request"
	"github.com/mcoot/tourneygate/internal/api/response"
	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/services/priority"
)

// ProfileHandler manages the user attributes priority criteria are evaluated against
type ProfileHandler struct {
	profiles *priority.StaticProfiles
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *priority.StaticProfiles) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Put handles PUT /api/v1/users/{user_id}/profile
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req request.PutProfileRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	userID := mux.Vars(r)["user_id"]
	profile := priority.Profile{}
	for k, v := range req.Attributes {
		profile[k] = v
	}
	h.profiles.Set(model.UserID(userID), profile)

	response.JSON(w, http.StatusOK, response.Profile{UserID: userID, Attributes: map[string]string(profile)})
}

// Get handles GET /api/v1/users/{user_id}/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	profile, err := h.profiles.Profile(r.Context(), model.UserID(userID))
	if err != nil {
		WriteError(w, err)
		return
	}

	attrs := make(map[string]string, len(profile))
	for k, v := range profile {
		attrs[k] = v
	}
	response.JSON(w, http.StatusOK, response.Profile{UserID: userID, Attributes: attrs})
}
