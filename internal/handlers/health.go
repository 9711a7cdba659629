package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AnshRaj112/pixora-backend/internal/respond"
)

// Check reports the health of one dependency.
type Check func(ctx context.Context) error

// Health pings every named dependency and answers 503 if any fails.
func Health(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "up"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		respond.JSON(w, status, map[string]interface{}{"status": overall, "checks": results})
	}
}
