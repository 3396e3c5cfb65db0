// Package httpretry оборачивает HTTP-клиент повторными попытками с экспоненциальной
// задержкой и джиттером для вызовов внешних API.
package httpretry

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"time"
)

// HTTPDoer выполняет HTTP-запрос. *http.Client и *RetryClient удовлетворяют интерфейсу.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryClient повторяет запросы при сетевых ошибках и статусах 429, 500, 502, 503, 504.
type RetryClient struct {
	client     HTTPDoer
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	log        *slog.Logger
}

// NewRetryClient создает RetryClient. При client == nil используется http.Client с таймаутом 30s.
// maxRetries число повторов после первой попытки, по умолчанию 3.
func NewRetryClient(client HTTPDoer, maxRetries int, baseDelay time.Duration, log *slog.Logger) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxRetries < 0 {
		maxRetries = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &RetryClient{
		client:     client,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   30 * baseDelay,
		log:        log,
	}
}

// Do выполняет запрос с повторами. Ошибки клиента (4xx кроме 429) и отмена контекста
// не повторяются. На последней попытке ответ возвращается как есть, чтобы вызывающий
// мог прочитать тело ошибки.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	const op = "httpretry.Do"
	var lastErr error

	for attempt := 0; attempt <= rc.maxRetries; attempt++ {
		if req.Context().Err() != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, req.Context().Err()
		}

		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("%s: failed to reset request body: %w", op, err)
				}
				req.Body = body
			}

			delay := rc.calculateDelay(attempt)
			rc.log.Warn("retrying request",
				slog.String("op", op),
				slog.Int("attempt", attempt),
				slog.Int("max_retries", rc.maxRetries),
				slog.String("method", req.Method),
				slog.String("host", req.URL.Host),
				slog.String("path", req.URL.Path),
				slog.Duration("delay", delay),
			)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-req.Context().Done():
				timer.Stop()
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, req.Context().Err()
			}
		}

		resp, err := rc.client.Do(req)
		if err != nil {
			lastErr = err
			if req.Context().Err() != nil {
				return nil, err
			}
			continue
		}

		if !isRetryableStatus(resp.StatusCode) || attempt == rc.maxRetries {
			return resp, nil
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		lastErr = fmt.Errorf("%s: server returned retryable status %d", op, resp.StatusCode)
	}

	return nil, lastErr
}

// calculateDelay экспоненциальная задержка с полным джиттером, не меньше половины baseDelay.
func (rc *RetryClient) calculateDelay(attempt int) time.Duration {
	expDelay := float64(rc.baseDelay) * math.Pow(2, float64(attempt-1))
	if expDelay > float64(rc.maxDelay) {
		expDelay = float64(rc.maxDelay)
	}
	jittered := time.Duration(rand.Float64() * expDelay)
	if floor := rc.baseDelay / 2; jittered < floor {
		jittered = floor
	}
	return jittered
}

func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
