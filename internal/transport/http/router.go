package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"campreg/internal/platform/middleware"
	"campreg/internal/transport/http/shared"
)

// Registrar mounts a handler group onto the authenticated router.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig carries everything the router needs. Health is optional; when
// nil the health endpoint reports only liveness.
type RouterConfig struct {
	Validator middleware.TokenValidator
	Log       zerolog.Logger
	Health    func() error
	Handlers  []Registrar
}

// NewRouter assembles the middleware chain and mounts every handler group
// behind authentication. Metrics and health stay outside the auth gate.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Log))
	r.Use(middleware.Logger(cfg.Log))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handleHealth(cfg.Health))

	r.Group(func(api chi.Router) {
		api.Use(middleware.RequireAuth(cfg.Validator, cfg.Log))
		for _, h := range cfg.Handlers {
			h.Register(api)
		}
	})

	return r
}

func handleHealth(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"reason": err.Error(),
				})
				return
			}
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
