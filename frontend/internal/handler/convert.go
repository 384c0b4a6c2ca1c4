package handler

import (
	"errors"
	"net/http"

	internal_errors "github.com/itchan-dev/emojiprofile/shared/errors"
	"github.com/itchan-dev/emojiprofile/shared/logger"
)

// ConvertPostHandler runs the conversion for the session and returns to the page.
// Failures are shown there as notices queued by the controller.
func (h *Handler) ConvertPostHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := sessionController(w, r)
	if !ok {
		return
	}

	if err := ctrl.Convert(r.Context()); err != nil {
		switch {
		case errors.Is(err, internal_errors.ErrMissingInput), errors.Is(err, internal_errors.ErrBusy):
			logger.Log.Debug("convert rejected", "error", err)
		default:
			logger.Log.Warn("convert failed", "error", err)
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
