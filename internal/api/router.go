package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tourneygate/internal/api/handler"
	"github.com/mcoot/tourneygate/internal/api/middleware"
	"github.com/mcoot/tourneygate/internal/api/sse"
	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/services/auth"
	"github.com/mcoot/tourneygate/internal/services/monitor"
	"github.com/mcoot/tourneygate/internal/services/priority"
	"github.com/mcoot/tourneygate/internal/services/registration"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger                 *slog.Logger
	AuthService            *auth.Service
	RegistrationController *registration.Controller
	Monitor                *monitor.Service
	HubManager             *sse.HubManager
	Profiles               *priority.StaticProfiles
	// Defaults is the registration config applied when a request omits one
	Defaults model.RegistrationConfig
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	registrations := handler.NewRegistrationHandler(cfg.RegistrationController, cfg.Defaults)
	queues := handler.NewQueueHandler(cfg.RegistrationController, cfg.Defaults)
	lotteries := handler.NewLotteryHandler(cfg.RegistrationController)
	tournaments := handler.NewTournamentHandler(cfg.RegistrationController)
	monitoring := handler.NewMonitorHandler(cfg.Monitor, cfg.RegistrationController, cfg.HubManager, cfg.Logger)
	operators := handler.NewOperatorHandler(cfg.AuthService)
	profiles := handler.NewProfileHandler(cfg.Profiles)

	operatorOnly := middleware.Operator(cfg.AuthService)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Tracing())

	api.HandleFunc("/health", monitoring.Health).Methods(http.MethodGet)
	api.HandleFunc("/operators/sessions", operators.Login).Methods(http.MethodPost)
	api.Handle("/operators/sessions", operatorOnly(http.HandlerFunc(operators.Logout))).Methods(http.MethodDelete)

	// Caller-facing routes
	t := api.PathPrefix("/tournaments/{id}").Subrouter()
	t.HandleFunc("/registrations", registrations.Register).Methods(http.MethodPost)
	t.HandleFunc("/registrations/retry", registrations.Retry).Methods(http.MethodPost)
	t.HandleFunc("/queue", queues.Join).Methods(http.MethodPost)
	t.HandleFunc("/queue/{user_id}", queues.Status).Methods(http.MethodGet)
	t.HandleFunc("/lottery", lotteries.Status).Methods(http.MethodGet)
	t.HandleFunc("/lottery/entries", registrations.EnterLottery).Methods(http.MethodPost)
	t.HandleFunc("/lottery/winners/{user_id}", lotteries.Winner).Methods(http.MethodGet)
	t.HandleFunc("/lottery/result", lotteries.Result).Methods(http.MethodGet)
	t.HandleFunc("/stats", monitoring.Stats).Methods(http.MethodGet)
	t.HandleFunc("/stats/stream", monitoring.StatsStream).Methods(http.MethodGet)

	// Operator routes
	admin := api.NewRoute().Subrouter()
	admin.Use(operatorOnly)
	admin.HandleFunc("/tournaments", tournaments.List).Methods(http.MethodGet)
	admin.HandleFunc("/tournaments/{id}", tournaments.Get).Methods(http.MethodGet)
	admin.HandleFunc("/tournaments/{id}", tournaments.Put).Methods(http.MethodPut)
	admin.HandleFunc("/tournaments/{id}/lottery/draw", lotteries.Draw).Methods(http.MethodPost)
	admin.HandleFunc("/tournaments/{id}/queue/drain", queues.Drain).Methods(http.MethodPost)
	admin.HandleFunc("/users/{user_id}/profile", profiles.Get).Methods(http.MethodGet)
	admin.HandleFunc("/users/{user_id}/profile", profiles.Put).Methods(http.MethodPut)

	return r
}
