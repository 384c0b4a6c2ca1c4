package handler

import (
	"net/http"

	"github.com/itchan-dev/emojiprofile/shared/domain"
	"github.com/itchan-dev/emojiprofile/shared/logger"
	"github.com/itchan-dev/emojiprofile/shared/validation"
)

type moodForm struct {
	Emoji string `validate:"required,mood"`
}

func (h *Handler) MoodPostHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := sessionController(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/", flashCookieError, "Invalid form data.")
		return
	}

	form := moodForm{Emoji: r.FormValue("emoji")}
	if err := validation.Struct(form); err != nil {
		logger.Log.Debug("rejected mood", "emoji", form.Emoji, "error", err)
		h.redirectWithFlash(w, r, "/", flashCookieError, "Please pick one of the available moods.")
		return
	}

	if err := ctrl.SelectMood(domain.Mood(form.Emoji)); err != nil {
		// notice already queued by the controller
		logger.Log.Debug("mood not applied", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
