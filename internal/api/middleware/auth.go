package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/tourneygate/internal/api/apierr"
	"github.com/mcoot/tourneygate/internal/services/auth"
)

type contextKey string

const sessionContextKey contextKey = "operator_session"

// Operator rejects requests without a valid operator session token.
// Rejections carry a Bearer challenge.
func Operator(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractToken(r)
			if !ok {
				challenge(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				challenge(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, session)))
		})
	}
}

func challenge(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="tourneygate"`)
	apierr.WriteError(w, err)
}

func extractToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetSession returns the operator session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}
