package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/realtime/core/logger"
)

// Readiness verifies all service dependencies are functioning.
// Returns "READY" if all checks pass, 503 Service Unavailable if any fail.
//
// Example:
//
//	mux.Handle("GET /health/ready", health.Readiness(log, router.Healthcheck))
func Readiness(log *slog.Logger, fn ...func(context.Context) error) http.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for _, f := range fn {
			if err := f(ctx); err != nil {
				log.ErrorContext(ctx, "Readiness check failed", logger.Error(err))
				writeText(w, http.StatusServiceUnavailable, "Service Unavailable")
				return
			}
		}

		writeText(w, http.StatusOK, "READY")
	}
}
