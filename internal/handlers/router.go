package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	custommw "github.com/leftovers/server/internal/middleware"
	"github.com/leftovers/server/internal/observability"
	"github.com/leftovers/server/internal/services"
)

// RouterConfig holds everything the HTTP routes depend on
type RouterConfig struct {
	Parties      *services.PartyService
	Photos       services.PhotoStore
	Hub          *services.PartyHub
	HTTPMetrics  *observability.HTTPMetrics
	MaxBodyBytes int64
}

// NewRouter builds the HTTP routes of the server
func NewRouter(cfg RouterConfig) http.Handler {
	partyHandler := NewPartyHandler(cfg.Parties)
	leftoverHandler := NewLeftoverHandler(cfg.Parties)
	photoHandler := NewPhotoHandler(cfg.Photos)
	healthHandler := NewHealthHandler()

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(custommw.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(observability.TracingMiddleware())
	if cfg.HTTPMetrics != nil {
		r.Use(observability.MetricsMiddleware(cfg.HTTPMetrics))
	}
	r.Use(custommw.MaxBodySize(cfg.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.Get("/health", healthHandler.HealthCheck)

	r.Post("/parties", partyHandler.Create)
	r.Get("/parties/{id}", partyHandler.Get)
	r.Post("/parties/{id}", partyHandler.Synchronize)
	if cfg.Hub != nil {
		eventsHandler := NewEventsHandler(cfg.Hub, cfg.Parties)
		r.Get("/parties/{id}/events", eventsHandler.Subscribe)
	}

	r.Post("/leftovers/{id}/setOwner", leftoverHandler.SetOwner)

	r.Get("/photos/{name}", photoHandler.Get)

	return r
}
