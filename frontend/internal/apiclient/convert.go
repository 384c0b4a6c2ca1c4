package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/itchan-dev/emojiprofile/shared/domain"
	internal_errors "github.com/itchan-dev/emojiprofile/shared/errors"
)

// maxDetailLen bounds how much of a failure body ends up in logs and errors.
const maxDetailLen = 512

// Convert posts file to /convert with the mood as the emoji query parameter and
// returns the PNG the backend answered with. Every failure wraps ErrConversionFailed.
func (c *APIClient) Convert(ctx context.Context, file domain.SelectedFile, mood domain.Mood) ([]byte, error) {
	path := "/convert?emoji=" + url.QueryEscape(mood.String())

	body, statusCode, err := c.postMultipartRequest(ctx, path, file)
	if err != nil {
		return nil, &internal_errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("conversion request failed: %v", err),
			StatusCode: http.StatusBadGateway,
			Err:        internal_errors.ErrConversionFailed,
		}
	}

	if statusCode < 200 || statusCode > 299 {
		return nil, &internal_errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("backend returned status %d: %s", statusCode, c.failureDetail(body)),
			StatusCode: http.StatusBadGateway,
			Err:        internal_errors.ErrConversionFailed,
		}
	}

	return body, nil
}

// postMultipartRequest streams file as the single "file" part of a multipart POST.
func (c *APIClient) postMultipartRequest(ctx context.Context, path string, file domain.SelectedFile) ([]byte, int, error) {
	pipeReader, pipeWriter := io.Pipe()
	writer := multipart.NewWriter(pipeWriter)

	go func() {
		defer pipeWriter.Close()
		defer writer.Close()

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
		if file.MimeType != "" {
			h.Set("Content-Type", file.MimeType)
		}

		part, err := writer.CreatePart(h)
		if err != nil {
			pipeWriter.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, bytes.NewReader(file.Data)); err != nil {
			pipeWriter.CloseWithError(err)
			return
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, pipeReader)
	if err != nil {
		pipeReader.Close()
		return nil, 0, fmt.Errorf("failed to create API request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		pipeReader.Close()
		return nil, 0, fmt.Errorf("backend unavailable: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := readLimited(resp.Body, c.MaxResultSize)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return bodyBytes, resp.StatusCode, nil
}

// failureDetail extracts a printable reason from an error body: the JSON "detail" field if any,
// otherwise the raw text, stripped of markup.
func (c *APIClient) failureDetail(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	detail := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			detail = s
		} else if b, err := json.Marshal(payload.Detail); err == nil {
			detail = string(b)
		}
	}

	detail = strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(detail)))
	if len(detail) > maxDetailLen {
		detail = detail[:maxDetailLen] + "..."
	}
	if detail == "" {
		return "no detail"
	}
	return detail
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
