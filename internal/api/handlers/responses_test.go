package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/zatekoja/ipd-admission-engine/backend/pkg/errors"
)

func TestRespondWithAppError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", apperrors.NewNotFoundError("booking not found"), http.StatusNotFound},
		{"validation", apperrors.NewValidationError("bad input"), http.StatusBadRequest},
		{"invalid state", apperrors.NewInvalidStateError("not waiting"), http.StatusUnprocessableEntity},
		{"conflict", apperrors.NewConflictError("bed taken"), http.StatusConflict},
		{"unauthorized", apperrors.NewUnauthorizedError("not the owner"), http.StatusForbidden},
		{"internal", apperrors.NewInternalError("boom", nil), http.StatusInternalServerError},
		{"foreign error", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithAppError(recorder, tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}
