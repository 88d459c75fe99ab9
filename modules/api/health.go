package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/ndavault/pkg/logger"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// Health serves liveness and readiness probes.
//
//   - GET /live always answers 200 "ALIVE".
//   - GET / runs every check and answers 200 "READY", or 503 "NOT_READY" when
//     any check fails.
type Health struct {
	checks  []Check
	timeout time.Duration
	log     *slog.Logger
}

func NewHealth(log *slog.Logger, checks ...Check) *Health {
	if log == nil {
		log = logger.Nop()
	}
	return &Health{checks: checks, timeout: 3 * time.Second, log: log}
}

func (h *Health) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.ready)
	r.Get("/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	})
	return r
}

func (h *Health) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	for _, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.ErrorContext(ctx, "readiness check failed", logger.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("READY"))
}
