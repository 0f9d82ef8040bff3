package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeTournamentNotFound  = "TOURNAMENT_NOT_FOUND"
	CodeInvalidTournament   = "INVALID_TOURNAMENT"
	CodeQueueFull           = "QUEUE_FULL"
	CodeNotInQueue          = "NOT_IN_QUEUE"
	CodeLotteryInProgress   = "LOTTERY_IN_PROGRESS"
	CodeLotteryAlreadyDrawn = "LOTTERY_ALREADY_DRAWN"
	CodeLotteryNotDrawn     = "LOTTERY_NOT_DRAWN"
	CodeOverCapacity        = "OVER_CAPACITY"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the HTTP status an error maps to
func StatusOf(err error) int {
	return toHTTPError(err).status
}

func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrTournamentNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeTournamentNotFound, "Tournament not found"}}
	case errors.Is(err, model.ErrInvalidUserID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "user_id is required"}}
	case errors.Is(err, model.ErrInvalidTournamentID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Tournament id is required"}}
	case errors.Is(err, model.ErrInvalidCapacity), errors.Is(err, model.ErrInvalidMode):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidTournament, err.Error()}}
	case errors.Is(err, model.ErrInvalidBatch):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "batch_size must be positive"}}
	case errors.Is(err, model.ErrQueueFull):
		return &httpError{http.StatusConflict, APIError{CodeQueueFull, "Registration queue is full"}}
	case errors.Is(err, model.ErrNotInQueue):
		return &httpError{http.StatusNotFound, APIError{CodeNotInQueue, "User is not in the queue"}}
	case errors.Is(err, model.ErrLotteryInProgress):
		return &httpError{http.StatusConflict, APIError{CodeLotteryInProgress, "Lottery draw in progress"}}
	case errors.Is(err, model.ErrLotteryAlreadyDrawn):
		return &httpError{http.StatusConflict, APIError{CodeLotteryAlreadyDrawn, "Lottery already drawn"}}
	case errors.Is(err, model.ErrLotteryNotDrawn):
		return &httpError{http.StatusNotFound, APIError{CodeLotteryNotDrawn, "Lottery has not been drawn"}}
	case errors.Is(err, model.ErrOverCapacity):
		return &httpError{http.StatusConflict, APIError{CodeOverCapacity, "Registrations would exceed capacity"}}

	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNoOperators):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid operator credentials"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
