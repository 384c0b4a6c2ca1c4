package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	internal_errors "github.com/itchan-dev/emojiprofile/shared/errors"
	"github.com/itchan-dev/emojiprofile/shared/logger"
)

// WriteErrorAndStatusCode answers with the status mapped from the error kind.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), internal_errors.StatusCode(err))
}

type errorResponse struct {
	Error string `json:"error"`
}

// WriteJSONError is WriteErrorAndStatusCode for JSON endpoints.
func WriteJSONError(w http.ResponseWriter, err error) {
	WriteJSON(w, internal_errors.StatusCode(err), errorResponse{Error: err.Error()})
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Error("encoding json response", "error", err)
	}
}

func Decode(r io.Reader, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Debug("decoding json body", "error", err)
		return &internal_errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: http.StatusBadRequest, Err: err}
	}
	return nil
}

// IsStatus reports whether err carries the given HTTP status code.
func IsStatus(err error, status int) bool {
	var withStatus *internal_errors.ErrorWithStatusCode
	return errors.As(err, &withStatus) && withStatus.StatusCode == status
}
