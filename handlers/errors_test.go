package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"qpgen/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "validation error is a bad request",
			err:        &services.ValidationError{Field: "exam_date", Detail: "expected YYYY-MM-DD"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "insufficient pool is a bad request",
			err:        &services.InsufficientPoolError{Filters: []string{"CO: CO2"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not found",
			err:        &services.NotFoundError{Entity: "course", ID: 42},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "authorization failure is forbidden",
			err:        &services.AuthorizationError{Detail: "faculty profile not found"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "render failure is a server error",
			err:        &services.RenderError{Detail: "render timed out"},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "persistence failure is a server error",
			err:        &services.PersistenceError{Detail: "could not store record"},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unclassified errors default to a server error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)

			respondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Contains(t, recorder.Body.String(), "error")
		})
	}
}
