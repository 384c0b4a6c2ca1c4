package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/itchan-dev/emojiprofile/shared/logger"
	"github.com/itchan-dev/emojiprofile/shared/validation"
)

const uploadField = "file"

// UploadPostHandler selects the uploaded image and waits briefly for its preview
// so the redirected page can usually show it right away.
func (h *Handler) UploadPostHandler(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := sessionController(w, r)
	if !ok {
		return
	}

	if r.MultipartForm == nil {
		if err := validation.ValidateAndParseMultipart(r, w, h.Public.Upload.MaxFileSizeBytes); err != nil {
			h.redirectWithFlash(w, r, "/", flashCookieError, h.uploadErrorMessage(err))
			return
		}
	}

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		h.redirectWithFlash(w, r, "/", flashCookieError, h.uploadErrorMessage(validation.ErrMissingFile))
		return
	}

	file, err := validation.ReadImageUpload(headers[0], h.Public.Upload.AllowedMimeTypes, h.Public.Upload.MaxFileSizeBytes)
	if err != nil {
		logger.Log.Warn("rejected upload", "file", headers[0].Filename, "error", err)
		h.redirectWithFlash(w, r, "/", flashCookieError, h.uploadErrorMessage(err))
		return
	}

	done := ctrl.SelectFile(file)
	if wait := h.Public.Preview.Wait; wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
		case <-r.Context().Done():
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// UploadTooLarge answers uploads rejected before their form was read.
func (h *Handler) UploadTooLarge(w http.ResponseWriter, r *http.Request) {
	h.redirectWithFlash(w, r, "/", flashCookieError, h.uploadErrorMessage(validation.ErrPayloadTooLarge))
}

func (h *Handler) uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, validation.ErrPayloadTooLarge):
		return fmt.Sprintf("The image is too large. Maximum size is %.1f MB.", validation.FormatSizeMB(h.Public.Upload.MaxFileSizeBytes))
	case errors.Is(err, validation.ErrInvalidMimeType):
		return "Please choose an image file."
	case errors.Is(err, validation.ErrMissingFile):
		return "Please select an image first!"
	}
	return "Could not read the uploaded file. Please try again."
}
