package handler

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/itchan-dev/emojiprofile/frontend/internal/controller"
	frontend_domain "github.com/itchan-dev/emojiprofile/frontend/internal/domain"
	"github.com/itchan-dev/emojiprofile/frontend/internal/middleware"
	"github.com/itchan-dev/emojiprofile/shared/logger"
)

const (
	flashCookieError   = "flash_error"
	flashCookieSuccess = "flash_success"
)

// TemplateData wraps page-specific data with common template data.
// Templates access page data via .Data and common data via .Common.
type TemplateData struct {
	Data   any
	Common frontend_domain.CommonTemplateData
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	tmpl, ok := h.getTemplate(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Template %s not found", name), http.StatusInternalServerError)
		return
	}

	wrapped := TemplateData{
		Data:   data,
		Common: h.initCommonTemplateData(w, r),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, wrapped); err != nil {
		logger.Log.Error("error executing template", "template", name, "error", err)
		http.Error(w, "Internal Server Error rendering template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// initCommonTemplateData consumes pending flash cookies and controller notices.
func (h *Handler) initCommonTemplateData(w http.ResponseWriter, r *http.Request) frontend_domain.CommonTemplateData {
	common := frontend_domain.CommonTemplateData{
		Error:     h.popFlash(w, r, flashCookieError),
		Success:   h.popFlash(w, r, flashCookieSuccess),
		CSRFToken: middleware.GetCSRFTokenFromContext(r),
		Validation: frontend_domain.ValidationData{
			MaxFileSizeBytes: h.Public.Upload.MaxFileSizeBytes,
			AllowedMimeTypes: h.Public.Upload.AllowedMimeTypes,
		},
	}
	if ctrl := middleware.GetControllerFromContext(r); ctrl != nil {
		common.Notices = noticeViews(ctrl.TakeNotices())
	}
	return common
}

func noticeViews(notices []controller.Notice) []frontend_domain.Notice {
	views := make([]frontend_domain.Notice, 0, len(notices))
	for _, n := range notices {
		views = append(views, frontend_domain.Notice{
			Level:   string(n.Level),
			Code:    n.Code(),
			Message: n.Message,
		})
	}
	return views
}

// redirectWithFlash stores a one-shot message in a cookie and redirects.
func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, cookieName, message string) {
	// base64 keeps quotes, commas and non-ASCII valid in a cookie value
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.StdEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		MaxAge:   300, // 5 minutes (enough time for redirect)
		HttpOnly: true,
		Secure:   h.Public.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) popFlash(w http.ResponseWriter, r *http.Request, cookieName string) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Public.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	decoded, err := base64.StdEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	return string(decoded)
}

// sessionController returns the request's controller or answers 500 when the
// session middleware is missing from the chain.
func sessionController(w http.ResponseWriter, r *http.Request) (*controller.Controller, bool) {
	ctrl := middleware.GetControllerFromContext(r)
	if ctrl == nil {
		logger.Log.Error("no session controller on request", "path", r.URL.Path)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	return ctrl, true
}
