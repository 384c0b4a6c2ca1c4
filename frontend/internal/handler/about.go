package handler

import (
	"net/http"
	"path/filepath"

	frontend_domain "github.com/itchan-dev/emojiprofile/frontend/internal/domain"
	"github.com/itchan-dev/emojiprofile/shared/logger"
)

const aboutFile = "about.md"

func (h *Handler) AboutGetHandler(w http.ResponseWriter, r *http.Request) {
	content, err := h.TextProcessor.RenderFile(filepath.Join(h.Public.Server.ContentPath, aboutFile))
	if err != nil {
		logger.Log.Error("rendering about page", "error", err)
		http.Error(w, "Page unavailable", http.StatusInternalServerError)
		return
	}
	h.renderTemplate(w, r, "about.html", frontend_domain.AboutPageData{Content: content})
}
