// Package create обрабатывает отправку формы регистрации с оплатой.
package create

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/paid-signup/internal/http/params"
	"github.com/magabrotheeeer/paid-signup/internal/http/response"
	"github.com/magabrotheeeer/paid-signup/internal/lib/sl"
	"github.com/magabrotheeeer/paid-signup/internal/models"
	"github.com/magabrotheeeer/paid-signup/internal/services/registration"
)

// RedirectAfterSignUp адрес, куда клиент переходит после успешной регистрации
const RedirectAfterSignUp = "/"

// Created ответ на успешную регистрацию
type Created struct {
	Account    models.Account `json:"account"`
	Token      string         `json:"token,omitempty"`
	RedirectTo string         `json:"redirect_to"`
}

// Handler обработчик POST /users
type Handler struct {
	log     *slog.Logger
	service Service
	tokens  TokenMaker
	policy  params.Policy
	payment params.PaymentInfo
}

// New создает Handler. policy задает поля, которые можно прочитать из формы.
func New(log *slog.Logger, service Service, tokens TokenMaker, policy params.Policy, payment params.PaymentInfo) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tokens:  tokens,
		policy:  policy,
		payment: payment,
	}
}

// ServeHTTP godoc
// @Summary Регистрация с оплатой
// @Description Email из платежного виджета заменяет email формы.
// @Tags registration
// @Accept json
// @Produce json
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /users [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registration.create"
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

	params.ApplyPaymentCapture(sub)
	input := params.ToSignUp(h.policy.Permit(sub.User))

	res, err := h.service.Create(r.Context(), input)
	if err != nil {
		var verr *registration.ValidationError
		if errors.As(err, &verr) {
			log.Info("sign up rejected", slog.Any("errors", verr.FullMessages()))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.FormError(params.FormView{
				User:    params.UserForm{Email: input.Email},
				Payment: h.payment,
			}, verr.FullMessages()))
			return
		}
		log.Error("failed to create account", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	token, err := h.tokens.GenerateToken(res.Account)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err), slog.String("account_uuid", res.Account.UUID))
		token = ""
	}

	log.Info("account signed up", slog.String("account_uuid", res.Account.UUID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(Created{
		Account:    res.Account,
		Token:      token,
		RedirectTo: RedirectAfterSignUp,
	}))
}
