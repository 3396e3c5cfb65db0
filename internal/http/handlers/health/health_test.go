package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ready(err error) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline")
		}
		return err
	}
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name     string
		checks   []Check
		wantCode int
		wantBody string
	}{
		{
			name:     "ready",
			checks:   []Check{{Name: "database", Ready: ready(nil)}, {Name: "broker", Ready: ready(nil)}},
			wantCode: http.StatusOK,
			wantBody: `"status":"ok"`,
		},
		{
			name:     "database down",
			checks:   []Check{{Name: "database", Ready: ready(errors.New("connection refused"))}, {Name: "broker", Ready: ready(nil)}},
			wantCode: http.StatusServiceUnavailable,
			wantBody: "database unavailable",
		},
		{
			name:     "broker connection lost",
			checks:   []Check{{Name: "database", Ready: ready(nil)}, {Name: "broker", Ready: ready(errors.New("broker connection closed"))}},
			wantCode: http.StatusServiceUnavailable,
			wantBody: "broker unavailable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), tt.checks...)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
