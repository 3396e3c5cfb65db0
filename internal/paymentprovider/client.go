// Package paymentprovider клиент платежного процессора Stripe: создание клиента и списание.
package paymentprovider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/charge"
	"github.com/stripe/stripe-go/v76/customer"
)

// Client клиент Stripe API поверх stripe-go
type Client struct {
	customers *customer.Client
	charges   *charge.Client
}

// NewClient создает клиента. apiURL базовый адрес API без /v1, пустой означает api.stripe.com.
// Повторы запросов отключены, решение о повторе принимает вызывающий.
func NewClient(apiURL, secretKey string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		LeveledLogger:     leveledLogger{log: log},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if apiURL != "" {
		cfg.URL = stripe.String(strings.TrimRight(apiURL, "/"))
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	return &Client{
		customers: &customer.Client{B: backend, Key: secretKey},
		charges:   &charge.Client{B: backend, Key: secretKey},
	}
}

// CreateCustomer создает клиента по email и токену платежного метода
func (c *Client) CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error) {
	const op = "paymentprovider.CreateCustomer"
	p := &stripe.CustomerParams{
		Email:  stripe.String(params.Email),
		Source: stripe.String(params.Source),
	}
	p.Context = ctx

	cus, err := c.customers.New(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, fromStripe(ctx, err))
	}
	return &Customer{ID: cus.ID, Email: cus.Email}, nil
}

// CreateCharge списывает сумму с клиента
func (c *Client) CreateCharge(ctx context.Context, params ChargeParams) (*Charge, error) {
	const op = "paymentprovider.CreateCharge"
	p := &stripe.ChargeParams{
		Customer:    stripe.String(params.Customer),
		Amount:      stripe.Int64(params.Amount),
		Currency:    stripe.String(params.Currency),
		Description: stripe.String(params.Description),
	}
	p.Context = ctx

	ch, err := c.charges.New(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, fromStripe(ctx, err))
	}
	return &Charge{
		ID:          ch.ID,
		Amount:      ch.Amount,
		Currency:    string(ch.Currency),
		Description: ch.Description,
		Paid:        ch.Paid,
		Status:      string(ch.Status),
	}, nil
}

// fromStripe переводит ошибку stripe-go в *Error. Все, что не пришло ответом API,
// считается сбоем соединения.
func fromStripe(ctx context.Context, err error) *Error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &Error{Type: ErrTypeAPIConnection, Message: ctxErr.Error()}
		}
		return &Error{Type: ErrTypeAPIConnection, Message: err.Error()}
	}
	typ := string(se.Type)
	if typ == "" {
		typ = typeForStatus(se.HTTPStatusCode)
	}
	return &Error{
		Type:       typ,
		Code:       string(se.Code),
		Message:    se.Msg,
		Param:      se.Param,
		HTTPStatus: se.HTTPStatusCode,
	}
}

func typeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return ErrTypeAuthentication
	case status == http.StatusTooManyRequests:
		return ErrTypeRateLimit
	case status == http.StatusPaymentRequired:
		return ErrTypeCard
	case status >= 400 && status < 500:
		return ErrTypeInvalidRequest
	default:
		return ErrTypeAPI
	}
}

// AsError извлекает *Error из цепочки ошибок
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// leveledLogger направляет журнал stripe-go в slog
type leveledLogger struct {
	log *slog.Logger
}

func (l leveledLogger) Debugf(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l leveledLogger) Infof(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l leveledLogger) Warnf(format string, v ...any) {
	l.log.Warn(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l leveledLogger) Errorf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}
