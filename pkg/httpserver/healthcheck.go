package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/dmitrymomot/tillkit/pkg/logger"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Liveness answers 200 "ALIVE" while the process serves requests.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	}
}

// Readiness runs every named check with timeout and answers 200 when all
// pass, 503 otherwise. The body maps check names to "ok" or the error.
func Readiness(log *slog.Logger, timeout time.Duration, checks map[string]Check) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		status := http.StatusOK
		results := make(map[string]string, len(names))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				log.WarnContext(ctx, "readiness check failed", slog.String("check", name), logger.Error(err))
				continue
			}
			results[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(results)
	}
}
