package handler

import (
	"net/http"

	"github.com/itchan-dev/emojiprofile/frontend/internal/controller"
	frontend_domain "github.com/itchan-dev/emojiprofile/frontend/internal/domain"
	"github.com/itchan-dev/emojiprofile/shared/domain"
	"github.com/itchan-dev/emojiprofile/shared/utils"
)

func (h *Handler) APIMoods(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, frontend_domain.MoodsResponse{
		Moods:   domain.Moods,
		Default: domain.DefaultMood,
	})
}

// APIState reports the session's state without draining its notices.
func (h *Handler) APIState(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := sessionController(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, stateResponse(ctrl.Snapshot()))
}

func stateResponse(s controller.State) frontend_domain.StateResponse {
	resp := frontend_domain.StateResponse{
		Phase:          s.Phase().String(),
		Mood:           s.Mood,
		File:           fileInfo(s),
		PreviewURL:     s.Preview.URI(),
		PreviewPending: s.PreviewPending(),
		PreviewFailed:  s.PreviewFailed,
		Loading:        s.Loading,
		CanConvert:     s.CanConvert(),
		ResultURL:      s.Result.URI(),
		ResultMood:     s.ResultMood,
	}
	if s.HasResult() {
		resp.DownloadFilename = domain.ResultFilename(s.Mood)
	}
	return resp
}
