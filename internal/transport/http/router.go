package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vladislavdragonenkov/checkout/internal/health"
)

// NewRouter собирает роутер сервиса: бизнес-маршруты плюс health-пробы.
func NewRouter(handler *Handler, healthHandler *health.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	handler.Register(r)

	if healthHandler != nil {
		r.Get("/healthz", healthHandler.ServeHTTP)
		r.Get("/readyz", healthHandler.ReadinessHandler)
	} else {
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
	}
	r.Get("/livez", health.LivenessHandler)

	return r
}
