package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/segyhp/pawn-ledger/internal/handler"
	"github.com/segyhp/pawn-ledger/pkg/response"
)

// Router builds the HTTP surface: probes, metrics and the ledger API.
func (a *App) Router() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})

	healthHandler := handler.NewHealthHandler(a.HealthChecks(), a.Config.GetHealthTimeout())
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")
	router.Handle("/metrics", a.Metrics.Handler()).Methods("GET")

	handler.NewLedgerHandler(a.Service, a.Logger).Register(router)

	// wrapped outside the router so preflight requests never hit route matching
	return response.CORSMiddleware(response.LoggingMiddleware(a.Logger)(router))
}
