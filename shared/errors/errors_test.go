package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing input", ErrMissingInput, http.StatusBadRequest},
		{"wrapped invalid mood", fmt.Errorf("parse: %w", ErrInvalidMood), http.StatusBadRequest},
		{"busy", ErrBusy, http.StatusConflict},
		{"no result", ErrNoResult, http.StatusNotFound},
		{"conversion failed", ErrConversionFailed, http.StatusBadGateway},
		{"decode failure", ErrDecodeFailure, http.StatusUnprocessableEntity},
		{"explicit status wins", &ErrorWithStatusCode{Message: "too big", StatusCode: http.StatusRequestEntityTooLarge, Err: ErrInvalidUpload}, http.StatusRequestEntityTooLarge},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestErrorWithStatusCode_Unwrap(t *testing.T) {
	err := fmt.Errorf("convert: %w", &ErrorWithStatusCode{Message: "backend returned 500", StatusCode: http.StatusBadGateway, Err: ErrConversionFailed})

	assert.True(t, errors.Is(err, ErrConversionFailed))
	assert.Equal(t, "convert: backend returned 500", err.Error())
}
