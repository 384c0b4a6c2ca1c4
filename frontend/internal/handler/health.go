package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/itchan-dev/emojiprofile/frontend/internal/apiclient"
	"github.com/itchan-dev/emojiprofile/shared/logger"
)

// Health is a liveness probe endpoint.
// Returns 200 OK if the server is running.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Ready is a readiness probe endpoint.
// Returns 503 Service Unavailable while the conversion backend does not answer.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Backend.Ping(ctx); err != nil {
		logger.Log.Warn("backend not ready", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("backend unavailable"))
		return
	}

	// a mismatch is reported but does not fail readiness
	if moods, err := h.Backend.Moods(ctx); err != nil {
		logger.Log.Warn("listing backend moods", "error", err)
	} else if missing := apiclient.MissingMoods(moods); len(missing) > 0 {
		logger.Log.Warn("backend does not advertise some moods", "missing", missing)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
