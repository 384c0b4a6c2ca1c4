package validation

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/itchan-dev/emojiprofile/shared/domain"
)

const sniffLen = 512

// ReadImageUpload checks the declared type and size of an uploaded image and reads it into memory.
// Content is not decoded here; decoding belongs to the preview step.
func ReadImageUpload(fileHeader *multipart.FileHeader, allowedMimes []string, maxSize int64) (domain.SelectedFile, error) {
	if fileHeader.Size > maxSize {
		return domain.SelectedFile{}, fmt.Errorf("%w: %s is %.1f MB, limit is %.1f MB",
			ErrPayloadTooLarge, fileHeader.Filename, FormatSizeMB(fileHeader.Size), FormatSizeMB(maxSize))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return domain.SelectedFile{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return domain.SelectedFile{}, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(data)) > maxSize {
		return domain.SelectedFile{}, fmt.Errorf("%w: %s", ErrPayloadTooLarge, fileHeader.Filename)
	}

	mimeType, err := DetectMimeType(fileHeader, data)
	if err != nil {
		return domain.SelectedFile{}, err
	}
	if !BuildAllowedMimeMap(allowedMimes)[mimeType] {
		return domain.SelectedFile{}, fmt.Errorf("%w: %s (file: %s)", ErrInvalidMimeType, mimeType, fileHeader.Filename)
	}

	return domain.NewSelectedFile(filepath.Base(fileHeader.Filename), mimeType, data), nil
}

func BuildAllowedMimeMap(mimes []string) map[string]bool {
	allowed := make(map[string]bool, len(mimes))
	for _, m := range mimes {
		allowed[strings.ToLower(m)] = true
	}
	return allowed
}

// DetectMimeType prefers the part's Content-Type, then the file extension, then content sniffing.
func DetectMimeType(fileHeader *multipart.FileHeader, head []byte) (string, error) {
	mimeType := fileHeader.Header.Get("Content-Type")

	if mimeType == "" || mimeType == "application/octet-stream" {
		if detected := mime.TypeByExtension(filepath.Ext(fileHeader.Filename)); detected != "" {
			mimeType = detected
		}
	}
	if (mimeType == "" || mimeType == "application/octet-stream") && len(head) > 0 {
		if len(head) > sniffLen {
			head = head[:sniffLen]
		}
		mimeType = http.DetectContentType(head)
	}

	if mimeType == "" {
		return "", fmt.Errorf("%w: could not detect MIME type for file: %s", ErrInvalidMimeType, fileHeader.Filename)
	}

	// drop parameters such as "; charset=utf-8"
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mediaType
	}
	return strings.ToLower(mimeType), nil
}
