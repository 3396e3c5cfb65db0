// Package signup собирает HTTP-приложение регистрации с оплатой.
package signup

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/paid-signup/internal/http/middlewarectx"
	"github.com/magabrotheeeer/paid-signup/internal/models"
)

// Handlers обработчики конечных точек приложения
type Handlers struct {
	NewForm   http.Handler
	PayForm   http.Handler
	Create    http.Handler
	SignIn    http.Handler
	Product   http.Handler
	Health    http.Handler
	UserCount http.Handler
}

// RegisterRoutes регистрирует все маршруты приложения.
// limiter ограничивает отправку форм регистрации и вход.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	h Handlers,
	tokens middlewarectx.TokenParser,
	limiter *rate.Limiter,
	gatherer prometheus.Gatherer,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", h.Health.ServeHTTP)
	r.Get("/users/sign_up", h.NewForm.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
		r.Post("/pay", h.PayForm.ServeHTTP)
		r.Post("/users", h.Create.ServeHTTP)
		r.Post("/users/sign_in", h.SignIn.ServeHTTP)
	})

	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(tokens, logger))
		r.Get("/products/{id}", h.Product.ServeHTTP)
	})

	// Группа администратора
	r.Route("/admin", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(tokens, logger))
		r.Use(middlewarectx.RequireRole(models.RoleAdmin, logger))
		r.Get("/users/count", h.UserCount.ServeHTTP)
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
