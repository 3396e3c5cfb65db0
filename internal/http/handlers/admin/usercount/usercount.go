// Package usercount отдает администратору число зарегистрированных учетных записей.
package usercount

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/paid-signup/internal/http/response"
	"github.com/magabrotheeeer/paid-signup/internal/lib/sl"
)

const (
	// CacheKey ключ кэшированного значения
	CacheKey = "accounts:count"
	// CacheTTL срок жизни кэшированного значения
	CacheTTL = time.Minute
)

// Counter считает учетные записи
type Counter interface {
	CountAccounts(ctx context.Context) (int, error)
}

// Cache кэш значения счетчика. Может быть nil.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Count тело ответа
type Count struct {
	Count int `json:"count"`
}

// Handler обработчик GET /admin/users/count
type Handler struct {
	log     *slog.Logger
	counter Counter
	cache   Cache
}

// New создает Handler
func New(log *slog.Logger, counter Counter, cache Cache) *Handler {
	return &Handler{
		log:     log,
		counter: counter,
		cache:   cache,
	}
}

// ServeHTTP godoc
// @Summary Число учетных записей
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/users/count [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.usercount"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if h.cache != nil {
		var cached Count
		found, err := h.cache.Get(r.Context(), CacheKey, &cached)
		if err != nil {
			log.Warn("failed to read cached count", sl.Err(err))
		}
		if found {
			render.Status(r, http.StatusOK)
			render.JSON(w, r, response.StatusOKWithData(cached))
			return
		}
	}

	n, err := h.counter.CountAccounts(r.Context())
	if err != nil {
		log.Error("failed to count accounts", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	count := Count{Count: n}
	if h.cache != nil {
		if err := h.cache.Set(r.Context(), CacheKey, count, CacheTTL); err != nil {
			log.Warn("failed to cache count", sl.Err(err))
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(count))
}
