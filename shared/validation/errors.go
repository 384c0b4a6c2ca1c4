package validation

import (
	"fmt"

	internal_errors "github.com/itchan-dev/emojiprofile/shared/errors"
)

// ErrPayloadTooLarge is returned when the request body exceeds size limits
var ErrPayloadTooLarge = fmt.Errorf("%w: payload too large", internal_errors.ErrInvalidUpload)

// ErrInvalidMimeType is returned when an uploaded file has a disallowed MIME type
var ErrInvalidMimeType = fmt.Errorf("%w: invalid MIME type", internal_errors.ErrInvalidUpload)

// ErrMissingFile is returned when the multipart form has no file part
var ErrMissingFile = fmt.Errorf("%w: no file in form", internal_errors.ErrMissingInput)
