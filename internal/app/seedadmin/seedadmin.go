// Package seedadmin создает учетную запись администратора из конфигурации.
package seedadmin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/paid-signup/internal/config"
	"github.com/magabrotheeeer/paid-signup/internal/lib/password"
	"github.com/magabrotheeeer/paid-signup/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/paid-signup/internal/lib/sl"
	"github.com/magabrotheeeer/paid-signup/internal/migrations"
	"github.com/magabrotheeeer/paid-signup/internal/models"
	"github.com/magabrotheeeer/paid-signup/internal/paymentprovider"
	"github.com/magabrotheeeer/paid-signup/internal/services/enrollment"
	"github.com/magabrotheeeer/paid-signup/internal/services/registration"
	"github.com/magabrotheeeer/paid-signup/internal/storage/repository"
)

// ErrNoCredentials в конфигурации не заданы email или пароль администратора
var ErrNoCredentials = errors.New("admin email and password must be set")

// Creator создает учетную запись
type Creator interface {
	Create(ctx context.Context, input models.SignUp) (*registration.Result, error)
}

// Seed создает администратора. Возвращает false без ошибки, если email уже занят.
func Seed(ctx context.Context, creator Creator, email, pass string, log *slog.Logger) (bool, error) {
	const op = "seedadmin.Seed"
	log = log.With(sl.Op(op), slog.String("email", email))

	if email == "" || pass == "" {
		return false, fmt.Errorf("%s: %w", op, ErrNoCredentials)
	}

	res, err := creator.Create(ctx, models.SignUp{
		Email:                email,
		Password:             pass,
		PasswordConfirmation: pass,
		Role:                 models.RoleAdmin,
	})
	if err != nil {
		var verr *registration.ValidationError
		if errors.As(err, &verr) && slices.Contains(verr.Fields["email"], registration.MsgTaken) {
			log.Info("admin account already exists")
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin account created", slog.String("account_uuid", res.Account.UUID))
	return true, nil
}

// Run подключает хранилище и брокер и создает администратора тем же конвейером, что и HTTP-регистрация.
func Run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	const op = "seedadmin.Run"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer db.Close()

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer conn.Close()
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.AccountsExchange, rabbitmq.GetEnrollmentQueues())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer ch.Close()

	service := registration.New(
		db,
		paymentprovider.NewClient(cfg.Payment.APIURL, cfg.Payment.SecretKey, cfg.Payment.Timeout, log),
		enrollment.NewDispatcher(ch),
		password.NewHasher(bcrypt.DefaultCost),
		nil,
		registration.Product{
			Amount:      cfg.Payment.ProductPrice,
			Currency:    cfg.Payment.Currency,
			Description: cfg.Payment.ProductTitle,
		},
		cfg.Payment.Timeout,
		log,
	)

	if _, err := Seed(ctx, service, cfg.Admin.Email, cfg.Admin.Password, log); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
