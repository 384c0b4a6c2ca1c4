package handler

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/emojiprofile/frontend/internal/resource"
	"github.com/itchan-dev/emojiprofile/shared/logger"
)

// DownloadGetHandler sends the current result as an attachment.
// Without a result nothing is sent and the user lands back on the page.
func (h *Handler) DownloadGetHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := sessionController(w, r)
	if !ok {
		return
	}

	dl, err := ctrl.Download()
	if err != nil {
		logger.Log.Debug("download without result", "error", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", dl.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.Data)
}

// ResourceGetHandler serves a preview or result image owned by the session.
func (h *Handler) ResourceGetHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := sessionController(w, r)
	if !ok {
		return
	}

	res, err := ctrl.Resource(resource.ID(chi.URLParam(r, "id")))
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logger.Log.Error("opening resource", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", res.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(res.Size, 10))
	// ids are never reused, so the content behind one never changes
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}
