package routes

import (
	"net/http"
	"time"

	"github.com/zabege/tg-rec-bot/internal/deps"

	pkghttpx "github.com/zabege/tg-rec-bot/pkg/httpx"
)

// Health returns a handler that responds with service status.
func Health(d deps.ServerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pkghttpx.WriteJSON(w, http.StatusOK, map[string]any{
			"status":         "ok",
			"service":        d.Name,
			"storage":        d.Storage,
			"uptime_seconds": int64(time.Since(d.StartedAt).Seconds()),
		})
	}
}
