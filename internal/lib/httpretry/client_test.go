package httpretry

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRetryClient_Do(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		maxRetries   int
		wantStatus   int
		wantAttempts int32
	}{
		{name: "success first try", statuses: []int{200}, maxRetries: 3, wantStatus: 200, wantAttempts: 1},
		{name: "retry on 503 then success", statuses: []int{503, 503, 200}, maxRetries: 3, wantStatus: 200, wantAttempts: 3},
		{name: "retry on 429", statuses: []int{429, 200}, maxRetries: 3, wantStatus: 200, wantAttempts: 2},
		{name: "no retry on 400", statuses: []int{400, 200}, maxRetries: 3, wantStatus: 400, wantAttempts: 1},
		{name: "exhausted returns last response", statuses: []int{500, 500, 500}, maxRetries: 2, wantStatus: 500, wantAttempts: 3},
		{name: "zero retries", statuses: []int{502, 200}, maxRetries: 0, wantStatus: 502, wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := attempts.Add(1)
				body, _ := io.ReadAll(r.Body)
				assert.Equal(t, `{"k":"v"}`, string(body))
				w.WriteHeader(tt.statuses[n-1])
			}))
			defer srv.Close()

			rc := NewRetryClient(srv.Client(), tt.maxRetries, time.Millisecond, newNoopLogger())
			req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL, strings.NewReader(`{"k":"v"}`))
			require.NoError(t, err)

			resp, err := rc.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantAttempts, attempts.Load())
		})
	}
}

func TestRetryClient_NetworkErrorExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	rc := NewRetryClient(&http.Client{Timeout: time.Second}, 2, time.Millisecond, newNoopLogger())
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)

	resp, err := rc.Do(req)
	require.Error(t, err)
	assert.Nil(t, resp)
}

func TestRetryClient_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rc := NewRetryClient(srv.Client(), 3, time.Millisecond, newNoopLogger())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = rc.Do(req)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelay_Bounds(t *testing.T) {
	rc := NewRetryClient(nil, 3, 10*time.Millisecond, newNoopLogger())
	for attempt := 1; attempt <= 10; attempt++ {
		d := rc.calculateDelay(attempt)
		assert.GreaterOrEqual(t, d, 5*time.Millisecond)
		assert.LessOrEqual(t, d, rc.maxDelay)
	}
}
