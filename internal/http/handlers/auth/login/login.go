// Package login обрабатывает вход по email и паролю и выдает JWT.
package login

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/paid-signup/internal/http/params"
	"github.com/magabrotheeeer/paid-signup/internal/http/response"
	"github.com/magabrotheeeer/paid-signup/internal/lib/sl"
	"github.com/magabrotheeeer/paid-signup/internal/models"
	"github.com/magabrotheeeer/paid-signup/internal/services/auth"
)

// Request учетные данные из раздела user формы входа
type Request struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// SignedIn ответ на успешный вход
type SignedIn struct {
	Token   string         `json:"token"`
	Account models.Account `json:"account"`
}

// Handler обработчик POST /users/sign_in
type Handler struct {
	log      *slog.Logger
	service  Service
	policy   params.Policy
	validate *validator.Validate
}

// New создает Handler
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		policy:   params.SignIn(),
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход
// @Description Проверяет email и пароль и возвращает JWT вместе с учетной записью.
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /users/sign_in [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"
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
	req := Request{
		Email:    permitted[params.FieldEmail],
		Password: permitted[params.FieldPassword],
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("sign in rejected", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("email and password are required"))
		return
	}

	token, account, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.Info("invalid credentials")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid email or password"))
			return
		}
		log.Error("failed to sign in", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("account signed in", slog.String("account_uuid", account.UUID))
	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData(SignedIn{
		Token:   token,
		Account: account,
	}))
}
