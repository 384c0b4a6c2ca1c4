package setup

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/itchan-dev/emojiprofile/frontend/internal/apiclient"
	"github.com/itchan-dev/emojiprofile/frontend/internal/controller"
	"github.com/itchan-dev/emojiprofile/frontend/internal/handler"
	"github.com/itchan-dev/emojiprofile/frontend/internal/markdown"
	"github.com/itchan-dev/emojiprofile/frontend/internal/preview"
	"github.com/itchan-dev/emojiprofile/frontend/internal/resource"
	"github.com/itchan-dev/emojiprofile/frontend/internal/session"
	"github.com/itchan-dev/emojiprofile/shared/config"
	"github.com/itchan-dev/emojiprofile/shared/jwt"
	"github.com/itchan-dev/emojiprofile/shared/logger"
	"github.com/itchan-dev/emojiprofile/shared/middleware/ratelimiter"
)

const (
	baseTemplate           = "base.html"
	partialsTemplate       = "partials.html"
	templateReloadInterval = 5 * time.Second

	uploadsPerMinute = 30
	uploadBurst      = 5

	// per client IP, covers session creation
	requestsPerMinute = 300
	requestBurst      = 60

	// all sessions combined, shields the conversion backend
	backendCallsPerMinute = 120
	backendBurst          = 20
)

type Dependencies struct {
	Config    *config.Config
	Handler   *handler.Handler
	Tokens    jwt.SessionService
	Sessions  *session.Manager
	Resources *resource.Store

	ConvertLimiter *ratelimiter.Limiter
	UploadLimiter  *ratelimiter.Limiter
	IPLimiter      *ratelimiter.Limiter
	BackendLimiter *ratelimiter.Limiter

	CancelFunc context.CancelFunc
}

func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	// Create cancellable context for background tasks
	ctx, cancel := context.WithCancel(context.Background())

	templates, err := loadTemplates(cfg.Public.Server.TemplatesPath)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	public := cfg.Public
	apiClient := apiclient.New(public.Backend.BaseURL, public.Backend.Timeout, public.Upload.MaxResultSizeBytes)
	decoder := preview.New(public.Preview.MaxDimension, public.Preview.MaxDecodedSizeBytes)
	resources := resource.NewStore()

	sessions := session.NewManager(func(id string) *controller.Controller {
		return controller.New(id, apiClient, decoder, resources)
	}, cfg.SessionTTL())
	sessions.StartBackgroundCleanup(ctx, public.Session.CleanupInterval)

	h := handler.New(templates, public, markdown.New(), apiClient)
	if cfg.IsDevelopment() {
		startTemplateReloader(ctx, h, public.Server.TemplatesPath)
	}

	logger.Log.Info("dependencies ready",
		"backend", public.Backend.BaseURL,
		"backend_timeout", public.Backend.Timeout,
		"session_ttl", cfg.SessionTTL(),
		"env", public.Server.Env)

	return &Dependencies{
		Config:         cfg,
		Handler:        h,
		Tokens:         jwt.New(cfg.SessionKey(), cfg.SessionTTL()),
		Sessions:       sessions,
		Resources:      resources,
		ConvertLimiter: ratelimiter.PerMinute(public.RateLimit.ConvertPerMinute, public.RateLimit.ConvertBurst),
		UploadLimiter:  ratelimiter.PerMinute(uploadsPerMinute, uploadBurst),
		IPLimiter:      ratelimiter.PerMinute(requestsPerMinute, requestBurst),
		BackendLimiter: ratelimiter.PerMinute(backendCallsPerMinute, backendBurst),
		CancelFunc:     cancel,
	}, nil
}

// Shutdown stops background work and releases every session.
func (d *Dependencies) Shutdown() {
	d.CancelFunc()
	d.ConvertLimiter.Stop()
	d.UploadLimiter.Stop()
	d.IPLimiter.Stop()
	d.BackendLimiter.Stop()
	n := d.Sessions.CloseAll()
	logger.Log.Info("sessions closed", "count", n, "resources_left", d.Resources.Len())
}

func bytesToMB(bytes int64) int64 {
	return bytes / (1024 * 1024)
}

// mimeTypeExtensions renders "image/jpeg, image/png" as "jpeg, png".
func mimeTypeExtensions(mimeTypes []string) string {
	var exts []string
	for _, mime := range mimeTypes {
		if _, sub, ok := strings.Cut(mime, "/"); ok {
			exts = append(exts, sub)
		}
	}
	return strings.Join(exts, ", ")
}

func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("invalid dict call: number of arguments must be even")
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict keys must be strings")
		}
		m[key] = values[i+1]
	}
	return m, nil
}

var templateFuncs = template.FuncMap{
	"dict":               dict,
	"bytesToMB":          bytesToMB,
	"mimeTypeExtensions": mimeTypeExtensions,
	"acceptList":         func(mimes []string) string { return strings.Join(mimes, ",") },
}

// loadTemplates parses every page template together with the base layout and partials.
func loadTemplates(tmplPath string) (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)
	files, err := os.ReadDir(tmplPath)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		if filepath.Ext(f.Name()) != ".html" || f.Name() == baseTemplate || f.Name() == partialsTemplate {
			continue
		}
		tmpl, err := template.New(baseTemplate).Funcs(templateFuncs).ParseFiles(
			filepath.Join(tmplPath, baseTemplate),
			filepath.Join(tmplPath, f.Name()),
			filepath.Join(tmplPath, partialsTemplate),
		)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.Name(), err)
		}
		templates[f.Name()] = tmpl
	}
	return templates, nil
}

func startTemplateReloader(ctx context.Context, h *handler.Handler, tmplPath string) {
	ticker := time.NewTicker(templateReloadInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				templates, err := loadTemplates(tmplPath)
				if err != nil {
					logger.Log.Warn("template reload failed", "error", err)
					continue
				}
				h.SetTemplates(templates)
			case <-ctx.Done():
				return
			}
		}
	}()
}
