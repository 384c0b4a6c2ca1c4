package validation

import (
	"fmt"
	"net/http"
)

// multipartOverhead leaves room for form fields and part headers on top of the file limit.
const multipartOverhead = 1 << 20

// ValidateAndParseMultipart caps the request body and parses the multipart form.
// Exceeding the cap makes the server stop reading, which browsers report as a reset connection.
func ValidateAndParseMultipart(r *http.Request, w http.ResponseWriter, maxFileSize int64) error {
	maxSize := CalculateMaxRequestSize(maxFileSize, multipartOverhead)
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		return fmt.Errorf("%w: failed to parse multipart form", ErrPayloadTooLarge)
	}

	return nil
}

// CalculateMaxRequestSize returns the maximum request size including overhead buffer.
func CalculateMaxRequestSize(maxFileSize int64, bufferSize int64) int64 {
	return maxFileSize + bufferSize
}

// FormatSizeMB converts bytes to megabytes for user-friendly error messages.
func FormatSizeMB(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}
