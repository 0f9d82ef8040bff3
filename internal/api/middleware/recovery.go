package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/tourneygate/internal/api/apierr"
	"github.com/mcoot/tourneygate/internal/middleware"
)

// Recovery returns a JSON internal error when a handler panics
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}

// Logging is the shared request logging middleware
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}

// Tracing is the shared request tracing middleware
func Tracing() func(http.Handler) http.Handler {
	return middleware.Tracing()
}
