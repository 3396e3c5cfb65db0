package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/paid-signup/internal/http/response"
)

// NewLimiter создает ограничитель из rps и burst. Нулевые значения заменяются на 1 и 3.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 3
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// RateLimitMiddleware отклоняет запросы сверх лимита с кодом 429. Лимит общий для всех
// маршрутов, которые обернуты этим middleware.
func RateLimitMiddleware(limiter *rate.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Warn("too many requests", slog.String("path", r.URL.Path))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
