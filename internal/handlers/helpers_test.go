package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/rowanhart/tasknest/internal/engine"
)

func TestRespondEngineError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "validation error",
			err:        &engine.ValidationError{Field: "title", Reason: "must not be empty"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not found error",
			err:        &engine.NotFoundError{ID: uuid.New()},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "persistence error",
			err:        &engine.PersistenceError{Op: "insert", Err: errors.New("down")},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "load error",
			err:        &engine.LoadError{Err: errors.New("down")},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "unknown error",
			err:        errors.New("mystery"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			respondEngineError(rec, tt.err)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), `"success":false`) {
				t.Errorf("expected error envelope, got %s", rec.Body.String())
			}
		})
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	t.Parallel()

	short := "plain error"
	if got := sanitizeErrorMessage(short); got != short {
		t.Errorf("short message altered: %q", got)
	}

	long := strings.Repeat("x", 300)
	got := sanitizeErrorMessage(long)
	if len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("long message not truncated: len=%d", len(got))
	}
}
