package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/emojiprofile/frontend/internal/apiclient"
	"github.com/itchan-dev/emojiprofile/frontend/internal/controller"
	frontend_domain "github.com/itchan-dev/emojiprofile/frontend/internal/domain"
	"github.com/itchan-dev/emojiprofile/frontend/internal/markdown"
	"github.com/itchan-dev/emojiprofile/frontend/internal/middleware"
	"github.com/itchan-dev/emojiprofile/frontend/internal/preview"
	"github.com/itchan-dev/emojiprofile/frontend/internal/resource"
	"github.com/itchan-dev/emojiprofile/frontend/internal/session"
	"github.com/itchan-dev/emojiprofile/shared/config"
	"github.com/itchan-dev/emojiprofile/shared/domain"
	"github.com/itchan-dev/emojiprofile/shared/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock for Backend ---

type MockBackend struct {
	PingFunc  func(ctx context.Context) error
	MoodsFunc func(ctx context.Context) ([]domain.Mood, error)
}

func (m *MockBackend) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockBackend) Moods(ctx context.Context) ([]domain.Mood, error) {
	if m.MoodsFunc != nil {
		return m.MoodsFunc(ctx)
	}
	return domain.Moods, nil
}

// --- Test environment ---

const indexTemplate = `phase={{.Data.Phase}}
mood={{.Data.SelectedMood}}
can_convert={{.Data.CanConvert}}
loading={{.Data.Loading}}
preview={{.Data.PreviewURL}}
result={{.Data.ResultURL}}
download={{.Data.DownloadFilename}}
{{range .Common.Notices}}notice={{.Code}}|{{.Message}}
{{end}}{{with .Common.Error}}error={{.}}
{{end}}csrf={{.Common.CSRFToken}}`

const aboutTemplate = `<main>{{.Data.Content}}</main>`

// backendStub answers /convert with the configured status and body and counts calls.
type backendStub struct {
	status int
	body   []byte
	calls  atomic.Int32
	emoji  atomic.Value
}

func (b *backendStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.calls.Add(1)
	b.emoji.Store(r.URL.Query().Get("emoji"))
	if err := r.ParseMultipartForm(1 << 20); err != nil || r.MultipartForm.File["file"] == nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(b.status)
	w.Write(b.body)
}

type testEnv struct {
	t       *testing.T
	router  http.Handler
	backend *backendStub
	store   *resource.Store
	cookies map[string]*http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	stub := &backendStub{status: http.StatusOK, body: []byte("converted png")}
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	public := config.Default()
	public.Preview.Wait = 2 * time.Second
	public.Server.ContentPath = t.TempDir()

	templates := map[string]*template.Template{
		"index.html": template.Must(template.New("index.html").Parse(indexTemplate)),
		"about.html": template.Must(template.New("about.html").Parse(aboutTemplate)),
	}

	client := apiclient.New(server.URL, 5*time.Second, public.Upload.MaxResultSizeBytes)
	store := resource.NewStore()
	decoder := preview.New(public.Preview.MaxDimension, public.Preview.MaxDecodedSizeBytes)
	sessions := session.NewManager(func(id string) *controller.Controller {
		return controller.New(id, client, decoder, store)
	}, time.Hour)
	t.Cleanup(func() { sessions.CloseAll() })

	h := New(templates, public, markdown.New(), &MockBackend{})
	tokens := jwt.New("0123456789abcdef0123456789abcdef", time.Hour)
	csrfConfig := middleware.CSRFConfig{
		MaxBodyBytes: public.Upload.MaxFileSizeBytes + 1<<20,
		TooLarge:     h.UploadTooLarge,
	}

	r := chi.NewRouter()
	r.Use(middleware.GenerateCSRFToken(csrfConfig))
	r.Use(middleware.Sessions(tokens, sessions, middleware.SessionConfig{MaxAge: 3600}))
	r.Use(middleware.ValidateCSRFToken(csrfConfig))
	r.Get("/", h.IndexGetHandler)
	r.Post("/upload", h.UploadPostHandler)
	r.Post("/mood", h.MoodPostHandler)
	r.Post("/convert", h.ConvertPostHandler)
	r.Get("/download", h.DownloadGetHandler)
	r.Get("/resources/{id}", h.ResourceGetHandler)
	r.Get("/about", h.AboutGetHandler)
	r.Get("/api/v1/state", h.APIState)

	return &testEnv{t: t, router: r, backend: stub, store: store, cookies: map[string]*http.Cookie{}}
}

// do sends req with the browser's cookies and remembers the ones set in the response.
func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(e.cookies, c.Name)
		} else {
			e.cookies[c.Name] = c
		}
	}
	return rr
}

func (e *testEnv) csrfToken() string {
	if c, ok := e.cookies["csrf_token"]; ok {
		return c.Value
	}
	e.get("/")
	return e.cookies["csrf_token"].Value
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	if values == nil {
		values = url.Values{}
	}
	values.Set("csrf_token", e.csrfToken())
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func (e *testEnv) upload(filename, contentType string, data []byte) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(e.t, writer.WriteField("csrf_token", e.csrfToken()))
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(h)
	require.NoError(e.t, err)
	part.Write(data)
	require.NoError(e.t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return e.do(req)
}

func (e *testEnv) page() string {
	rr := e.get("/")
	require.Equal(e.t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{uint8(x * 8), uint8(y * 8), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func assertRedirectHome(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func pageValue(page, key string) string {
	for _, line := range strings.Split(page, "\n") {
		if v, ok := strings.CutPrefix(line, key+"="); ok {
			return v
		}
	}
	return ""
}

// --- Tests ---

func TestIndexInitialState(t *testing.T) {
	env := newTestEnv(t)

	page := env.page()

	assert.Equal(t, "idle", pageValue(page, "phase"))
	assert.Equal(t, "😄", pageValue(page, "mood"))
	assert.Equal(t, "false", pageValue(page, "can_convert"))
	assert.Empty(t, pageValue(page, "result"))
	assert.NotEmpty(t, pageValue(page, "csrf"))
}

func TestConvertWithoutFile(t *testing.T) {
	env := newTestEnv(t)

	assertRedirectHome(t, env.postForm("/convert", nil))

	page := env.page()
	assert.Contains(t, page, "notice=missing_input|Please select an image first!")
	assert.Empty(t, pageValue(page, "result"))
	assert.Zero(t, env.backend.calls.Load(), "backend must not be called")

	assert.NotContains(t, env.page(), "notice=", "notices are shown once")
}

func TestFullFlow(t *testing.T) {
	env := newTestEnv(t)
	result := bytes.Repeat([]byte{0x89, 'P', 'N', 'G'}, 1280)
	env.backend.body = result

	assertRedirectHome(t, env.upload("me.png", "image/png", testPNG(t)))
	page := env.page()
	assert.Equal(t, "file_ready", pageValue(page, "phase"))
	assert.Equal(t, "true", pageValue(page, "can_convert"))
	previewURL := pageValue(page, "preview")
	require.True(t, strings.HasPrefix(previewURL, "/resources/"), "preview should be ready after the upload wait")

	assertRedirectHome(t, env.postForm("/mood", url.Values{"emoji": {"🥳"}}))
	assert.Equal(t, "🥳", pageValue(env.page(), "mood"))

	assertRedirectHome(t, env.postForm("/convert", nil))
	assert.Equal(t, int32(1), env.backend.calls.Load())
	assert.Equal(t, "🥳", env.backend.emoji.Load())

	page = env.page()
	assert.Equal(t, "converted", pageValue(page, "phase"))
	assert.Equal(t, "false", pageValue(page, "loading"))
	assert.Equal(t, "emoji-profile-🥳.png", pageValue(page, "download"))
	resultURL := pageValue(page, "result")
	require.NotEmpty(t, resultURL)

	t.Run("download sends the result as attachment", func(t *testing.T) {
		rr := env.get("/download")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
		assert.Equal(t, result, rr.Body.Bytes())

		disposition := rr.Header().Get("Content-Disposition")
		assert.True(t, strings.HasPrefix(disposition, "attachment"))
		assert.Contains(t, disposition, url.PathEscape("emoji-profile-🥳.png"))
	})

	t.Run("resources are served to their session only", func(t *testing.T) {
		rr := env.get(resultURL)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, result, rr.Body.Bytes())

		rr = env.get(previewURL)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

		stranger := httptest.NewRecorder()
		env.router.ServeHTTP(stranger, httptest.NewRequest(http.MethodGet, resultURL, nil))
		assert.Equal(t, http.StatusNotFound, stranger.Code)
	})

	t.Run("state api mirrors the page", func(t *testing.T) {
		rr := env.get("/api/v1/state")
		require.Equal(t, http.StatusOK, rr.Code)

		var state frontend_domain.StateResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
		assert.Equal(t, "converted", state.Phase)
		assert.Equal(t, domain.MoodParty, state.Mood)
		assert.Equal(t, domain.MoodParty, state.ResultMood)
		assert.Equal(t, resultURL, state.ResultURL)
		require.NotNil(t, state.File)
		assert.Equal(t, "me.png", state.File.Name)
	})

	t.Run("new upload clears the result and revokes it", func(t *testing.T) {
		assertRedirectHome(t, env.upload("other.png", "image/png", testPNG(t)))

		page := env.page()
		assert.Empty(t, pageValue(page, "result"))
		assert.Empty(t, pageValue(page, "download"))
		assert.Equal(t, http.StatusNotFound, env.get(resultURL).Code)
		assert.Equal(t, http.StatusNotFound, env.get(previewURL).Code)
		assert.Equal(t, "🥳", pageValue(page, "mood"))
	})
}

func TestConvertBackendFailure(t *testing.T) {
	env := newTestEnv(t)
	env.backend.status = http.StatusInternalServerError
	env.backend.body = []byte(`{"detail":"Conversion failed"}`)

	env.upload("me.png", "image/png", testPNG(t))
	assertRedirectHome(t, env.postForm("/convert", nil))

	page := env.page()
	assert.Contains(t, page, "notice=conversion_failed|Failed to convert image. Please try again.")
	assert.Empty(t, pageValue(page, "result"))
	assert.Equal(t, "false", pageValue(page, "loading"))
	assert.Equal(t, "true", pageValue(page, "can_convert"))
	assertRedirectHome(t, env.get("/download"))
}

func TestDownloadWithoutResult(t *testing.T) {
	env := newTestEnv(t)

	rr := env.get("/download")

	assertRedirectHome(t, rr)
	assert.Empty(t, rr.Header().Get("Content-Disposition"))
}

func TestMoodValidation(t *testing.T) {
	env := newTestEnv(t)

	for _, m := range domain.Moods {
		env.postForm("/mood", url.Values{"emoji": {m.String()}})
		assert.Equal(t, m.String(), pageValue(env.page(), "mood"))
	}

	assertRedirectHome(t, env.postForm("/mood", url.Values{"emoji": {"🐱"}}))
	page := env.page()
	assert.Equal(t, "Please pick one of the available moods.", pageValue(page, "error"))
	assert.Equal(t, domain.MoodParty.String(), pageValue(page, "mood"))
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		wantError   string
	}{
		{
			name:        "not an image",
			filename:    "notes.txt",
			contentType: "text/plain",
			data:        []byte("hello"),
			wantError:   "Please choose an image file.",
		},
		{
			name:        "too large",
			filename:    "huge.png",
			contentType: "image/png",
			data:        bytes.Repeat([]byte{1}, int(config.Default().Upload.MaxFileSizeBytes)+1),
			wantError:   "The image is too large. Maximum size is 10.0 MB.",
		},
		{
			name:        "far over the form limit",
			filename:    "huge.png",
			contentType: "image/png",
			data:        bytes.Repeat([]byte{1}, 12<<20),
			wantError:   "The image is too large. Maximum size is 10.0 MB.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			assertRedirectHome(t, env.upload(tt.filename, tt.contentType, tt.data))

			page := env.page()
			assert.Equal(t, tt.wantError, pageValue(page, "error"))
			assert.Equal(t, "idle", pageValue(page, "phase"))
		})
	}
}

func TestUploadUndecodableImage(t *testing.T) {
	env := newTestEnv(t)

	assertRedirectHome(t, env.upload("broken.png", "image/png", []byte("not really a png")))

	page := env.page()
	assert.Contains(t, page, "notice=decode_failure|")
	assert.Equal(t, "true", pageValue(page, "can_convert"))
	assert.Empty(t, pageValue(page, "preview"))
}

func TestCSRFRequired(t *testing.T) {
	env := newTestEnv(t)
	env.get("/")

	req := httptest.NewRequest(http.MethodPost, "/convert", nil)
	rr := env.do(req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAbout(t *testing.T) {
	env := newTestEnv(t)
	h := &Handler{
		Public:        config.Default(),
		TextProcessor: markdown.New(),
		templates: map[string]*template.Template{
			"about.html": template.Must(template.New("about.html").Parse(aboutTemplate)),
		},
	}
	h.Public.Server.ContentPath = t.TempDir()

	t.Run("renders sanitized markdown", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(h.Public.Server.ContentPath, "about.md"),
			[]byte("# Emoji Profile Maker\n\n<script>alert(1)</script>Pick a mood."), 0o644))

		rr := httptest.NewRecorder()
		h.AboutGetHandler(rr, httptest.NewRequest(http.MethodGet, "/about", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Emoji Profile Maker</h1>")
		assert.NotContains(t, rr.Body.String(), "<script")
	})

	t.Run("missing content is an error", func(t *testing.T) {
		rr := env.get("/about")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestAPIMoods(t *testing.T) {
	h := &Handler{}
	rr := httptest.NewRecorder()

	h.APIMoods(rr, httptest.NewRequest(http.MethodGet, "/api/v1/moods", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp frontend_domain.MoodsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, domain.Moods, resp.Moods)
	assert.Equal(t, domain.MoodHappy, resp.Default)
}

func TestHealth(t *testing.T) {
	handler := &Handler{Backend: &MockBackend{}}
	rr := httptest.NewRecorder()

	handler.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestReady(t *testing.T) {
	t.Run("returns 200 OK when backend answers", func(t *testing.T) {
		handler := &Handler{Backend: &MockBackend{
			MoodsFunc: func(ctx context.Context) ([]domain.Mood, error) {
				return []domain.Mood{domain.MoodHappy}, nil // mismatch is only logged
			},
		}}
		rr := httptest.NewRecorder()

		handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ok", rr.Body.String())
	})

	t.Run("returns 503 when backend is down", func(t *testing.T) {
		handler := &Handler{Backend: &MockBackend{
			PingFunc: func(ctx context.Context) error {
				return errors.New("connection refused")
			},
		}}
		rr := httptest.NewRecorder()

		handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		body, _ := io.ReadAll(rr.Body)
		assert.Equal(t, "backend unavailable", string(body))
	})
}
