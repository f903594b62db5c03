package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/quotekit/pkg/logger"
)

type Check func(ctx context.Context) error

// HealthHandler answers 200 when every named check passes and 503 otherwise.
// With no checks it acts as a liveness probe.
func HealthHandler(log *slog.Logger, timeout time.Duration, checks map[string]Check) http.HandlerFunc {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.WarnContext(ctx, "health check failed", slog.String("check", name), logger.Error(err))
				result[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			result[name] = "up"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks,omitempty"`
		}{
			Status: http.StatusText(status),
			Checks: result,
		})
	}
}
