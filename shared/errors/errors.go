package errors

import (
	"errors"
	"net/http"
)

// Error kinds surfaced by the conversion flow. Callers match them with errors.Is.
var (
	ErrMissingInput     = errors.New("please select an image first")
	ErrConversionFailed = errors.New("failed to convert image")
	ErrDecodeFailure    = errors.New("could not read the selected image")
	ErrBusy             = errors.New("a conversion is already in progress")
	ErrInvalidMood      = errors.New("invalid emoji")
	ErrNoResult         = errors.New("no converted image to download")
	ErrInvalidUpload    = errors.New("file must be an image")
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
	Err        error // optional kind, exposed through Unwrap
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func (e *ErrorWithStatusCode) Unwrap() error {
	return e.Err
}

// StatusCode maps an error to the HTTP status a handler should answer with.
func StatusCode(err error) int {
	var withStatus *ErrorWithStatusCode
	if errors.As(err, &withStatus) && withStatus.StatusCode != 0 {
		return withStatus.StatusCode
	}
	switch {
	case errors.Is(err, ErrMissingInput), errors.Is(err, ErrInvalidMood), errors.Is(err, ErrInvalidUpload):
		return http.StatusBadRequest
	case errors.Is(err, ErrDecodeFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrBusy):
		return http.StatusConflict
	case errors.Is(err, ErrNoResult):
		return http.StatusNotFound
	case errors.Is(err, ErrConversionFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
