// Package payform отдает форму регистрации, заполненную отправленными данными,
// для повторного показа перед оплатой. Ничего не сохраняет.
package payform

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/paid-signup/internal/http/params"
	"github.com/magabrotheeeer/paid-signup/internal/http/response"
	"github.com/magabrotheeeer/paid-signup/internal/lib/sl"
)

// Handler обработчик POST /pay
type Handler struct {
	log     *slog.Logger
	policy  params.Policy
	payment params.PaymentInfo
}

// New создает Handler. policy задает поля, которые можно прочитать из формы.
func New(log *slog.Logger, policy params.Policy, payment params.PaymentInfo) *Handler {
	return &Handler{
		log:     log,
		policy:  policy,
		payment: payment,
	}
}

// ServeHTTP godoc
// @Summary Форма регистрации, заполненная отправленными данными
// @Tags registration
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /pay [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registration.payform"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sub, err := params.Decode(r)
	if err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	permitted := h.policy.Permit(sub.User)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(params.FormView{
		User: params.UserForm{
			Email:                permitted[params.FieldEmail],
			Password:             permitted[params.FieldPassword],
			PasswordConfirmation: permitted[params.FieldPasswordConfirmation],
		},
		Payment: h.payment,
	}))
}
