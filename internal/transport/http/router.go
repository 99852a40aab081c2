package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the verification API routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/drivers/{driverID}/verification", func(r chi.Router) {
		r.Get("/", h.GetVerification)
		r.Post("/run", h.RunVerification)
	})
	r.Post("/verification/workflows/{workflowID}/resume", h.ResumeWorkflow)
	r.Post("/internal/reverification/sweep", h.TriggerSweep)

	return r
}
