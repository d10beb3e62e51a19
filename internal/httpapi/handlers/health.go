package handlers

import (
	"context"
	"net/http"
	"time"

	"comfybridge/internal/httpkit"
)

// Health reporta el estado del bridge y del engine detrás de él.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := map[string]any{
		"status":  "ok",
		"service": "comfybridge",
	}

	engineStatus := map[string]any{"status": "ok"}
	start := time.Now()
	if err := h.engine.Reachable(ctx); err != nil {
		engineStatus["status"] = "error"
		engineStatus["error"] = err.Error()
		health["status"] = "degraded"
	}
	engineStatus["latency_ms"] = time.Since(start).Milliseconds()
	health["engine"] = engineStatus

	if h.sp != nil {
		health["storage"] = map[string]any{"provider": h.sp.Provider()}
	} else {
		health["storage"] = map[string]any{"provider": "inline"}
	}

	httpkit.WriteJSON(w, http.StatusOK, health)
}
