// Package newform отдает пустую форму регистрации.
package newform

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/paid-signup/internal/http/params"
	"github.com/magabrotheeeer/paid-signup/internal/http/response"
)

// Handler обработчик GET /users/sign_up
type Handler struct {
	log     *slog.Logger
	payment params.PaymentInfo
}

// New создает Handler
func New(log *slog.Logger, payment params.PaymentInfo) *Handler {
	return &Handler{
		log:     log,
		payment: payment,
	}
}

// ServeHTTP godoc
// @Summary Пустая форма регистрации
// @Tags registration
// @Produce json
// @Success 200 {object} response.Response
// @Router /users/sign_up [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registration.newform"
	h.log.Debug("rendering blank form",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(params.FormView{
		User:    params.UserForm{},
		Payment: h.payment,
	}))
}
