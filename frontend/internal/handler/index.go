package handler

import (
	"net/http"

	"github.com/itchan-dev/emojiprofile/frontend/internal/controller"
	frontend_domain "github.com/itchan-dev/emojiprofile/frontend/internal/domain"
	"github.com/itchan-dev/emojiprofile/shared/domain"
)

// pendingRefreshSeconds is how often the page reloads while a preview or conversion is pending.
const pendingRefreshSeconds = 2

func (h *Handler) IndexGetHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := sessionController(w, r)
	if !ok {
		return
	}
	h.renderTemplate(w, r, "index.html", indexPageData(ctrl.Snapshot()))
}

func indexPageData(s controller.State) frontend_domain.IndexPageData {
	data := frontend_domain.IndexPageData{
		SelectedMood:   s.Mood,
		Phase:          s.Phase().String(),
		File:           fileInfo(s),
		PreviewURL:     s.Preview.URI(),
		PreviewPending: s.PreviewPending(),
		PreviewFailed:  s.PreviewFailed,
		Loading:        s.Loading,
		CanConvert:     s.CanConvert(),
		HasResult:      s.HasResult(),
		ResultURL:      s.Result.URI(),
		ResultMood:     s.ResultMood,
	}
	for _, m := range domain.Moods {
		data.Moods = append(data.Moods, frontend_domain.MoodOption{Mood: m, Selected: m == s.Mood})
	}
	if data.HasResult {
		data.DownloadFilename = domain.ResultFilename(s.Mood)
	}
	if data.Loading || data.PreviewPending {
		data.RefreshSeconds = pendingRefreshSeconds
	}
	return data
}

func fileInfo(s controller.State) *frontend_domain.FileInfo {
	if s.File == nil {
		return nil
	}
	return &frontend_domain.FileInfo{
		Name:     s.File.Name,
		MimeType: s.File.MimeType,
		Size:     s.File.Size(),
		Digest:   s.File.ShortDigest(),
	}
}
