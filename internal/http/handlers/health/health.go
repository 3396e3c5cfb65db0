// Package health отдает состояние сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/paid-signup/internal/http/response"
	"github.com/magabrotheeeer/paid-signup/internal/lib/sl"
)

const checkTimeout = 2 * time.Second

// Check именованная проверка зависимости
type Check struct {
	Name  string
	Ready func(ctx context.Context) error
}

// Handler обработчик GET /health
type Handler struct {
	log    *slog.Logger
	checks []Check
}

// New создает Handler. Проверки выполняются по порядку, первая неудачная дает 503.
func New(log *slog.Logger, checks ...Check) *Handler {
	return &Handler{
		log:    log,
		checks: checks,
	}
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Tags health
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.ErrorResponse
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	for _, c := range h.checks {
		if err := c.Ready(ctx); err != nil {
			h.log.Error("dependency is not ready", slog.String("op", op), slog.String("check", c.Name), sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(c.Name+" unavailable"))
			return
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status": "ok",
	}))
}
