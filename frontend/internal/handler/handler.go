package handler

import (
	"context"
	"html/template"
	"sync"

	"github.com/itchan-dev/emojiprofile/frontend/internal/markdown"
	"github.com/itchan-dev/emojiprofile/shared/config"
	"github.com/itchan-dev/emojiprofile/shared/domain"
)

// Backend is what the handlers need from the conversion service besides converting.
type Backend interface {
	Ping(ctx context.Context) error
	Moods(ctx context.Context) ([]domain.Mood, error)
}

type Handler struct {
	Public        config.Public
	TextProcessor *markdown.TextProcessor
	Backend       Backend

	mu        sync.RWMutex
	templates map[string]*template.Template
}

func New(templates map[string]*template.Template, publicCfg config.Public, textProcessor *markdown.TextProcessor, backend Backend) *Handler {
	return &Handler{
		templates:     templates,
		Public:        publicCfg,
		TextProcessor: textProcessor,
		Backend:       backend,
	}
}

// SetTemplates swaps the template set, used by the development reloader.
func (h *Handler) SetTemplates(templates map[string]*template.Template) {
	h.mu.Lock()
	h.templates = templates
	h.mu.Unlock()
}

func (h *Handler) getTemplate(name string) (*template.Template, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	tmpl, ok := h.templates[name]
	return tmpl, ok
}
