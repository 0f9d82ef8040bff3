package handler

import (
	"net/http"

	"github.com/mcoot/tourneygate/internal/api/middleware"
	"github.com/mcoot/tourneygate/internal/api/request"
	"github.com/mcoot/tourneygate/internal/api/response"
	"github.com/mcoot/tourneygate/internal/services/auth"
)

// OperatorHandler handles operator session endpoints
type OperatorHandler struct {
	authService *auth.Service
}

// NewOperatorHandler creates a new operator handler
func NewOperatorHandler(authService *auth.Service) *OperatorHandler {
	return &OperatorHandler{authService: authService}
}

// Login handles POST /api/v1/operators/sessions
func (h *OperatorHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Operator == "" || req.Key == "" {
		WriteError(w, NewInvalidRequestError("operator and key are required"))
		return
	}

	session, err := h.authService.Login(req.Operator, req.Key)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.SessionFromAuth(session))
}

// Logout handles DELETE /api/v1/operators/sessions
func (h *OperatorHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.InvalidateSession(middleware.GetSession(r.Context()).Token)
	response.NoContent(w)
}
