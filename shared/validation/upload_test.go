package validation

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	internal_errors "github.com/itchan-dev/emojiprofile/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

var allowed = []string{"image/jpeg", "image/png"}

// buildFileHeader produces a parsed multipart file header the same way a handler would see it.
func buildFileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestReadImageUpload(t *testing.T) {
	t.Run("declared content type", func(t *testing.T) {
		fh := buildFileHeader(t, "me.png", "image/png", pngMagic)

		file, err := ReadImageUpload(fh, allowed, 1024)
		require.NoError(t, err)
		assert.Equal(t, "me.png", file.Name)
		assert.Equal(t, "image/png", file.MimeType)
		assert.Equal(t, pngMagic, file.Data)
		assert.NotEmpty(t, file.Digest)
	})

	t.Run("generic content type falls back to extension", func(t *testing.T) {
		fh := buildFileHeader(t, "me.jpg", "application/octet-stream", []byte{0xff, 0xd8, 0xff, 0xe0})

		file, err := ReadImageUpload(fh, allowed, 1024)
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", file.MimeType)
	})

	t.Run("no hints falls back to sniffing", func(t *testing.T) {
		fh := buildFileHeader(t, "blob", "application/octet-stream", pngMagic)

		file, err := ReadImageUpload(fh, allowed, 1024)
		require.NoError(t, err)
		assert.Equal(t, "image/png", file.MimeType)
	})

	t.Run("disallowed type", func(t *testing.T) {
		fh := buildFileHeader(t, "notes.txt", "text/plain", []byte("hello"))

		_, err := ReadImageUpload(fh, allowed, 1024)
		assert.True(t, errors.Is(err, ErrInvalidMimeType))
		assert.True(t, errors.Is(err, internal_errors.ErrInvalidUpload))
	})

	t.Run("too large", func(t *testing.T) {
		fh := buildFileHeader(t, "big.png", "image/png", bytes.Repeat([]byte{1}, 2048))

		_, err := ReadImageUpload(fh, allowed, 1024)
		assert.True(t, errors.Is(err, ErrPayloadTooLarge))
	})
}

func TestValidateAndParseMultipart(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "big.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{1}, 4096))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	t.Run("within limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(body.Bytes()))
		req.Header.Set("Content-Type", writer.FormDataContentType())

		assert.NoError(t, ValidateAndParseMultipart(req, httptest.NewRecorder(), 8192))
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader([]byte("a=b")))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		err := ValidateAndParseMultipart(req, httptest.NewRecorder(), 8192)
		assert.True(t, errors.Is(err, ErrPayloadTooLarge))
	})
}

func TestStruct_MoodTag(t *testing.T) {
	type form struct {
		Emoji string `validate:"required,mood"`
	}

	assert.NoError(t, Struct(form{Emoji: "😭"}))
	assert.Error(t, Struct(form{Emoji: "🤖"}))
	assert.Error(t, Struct(form{}))
}
