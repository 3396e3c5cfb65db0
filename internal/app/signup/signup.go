package signup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"
	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/paid-signup/internal/cache"
	"github.com/magabrotheeeer/paid-signup/internal/config"
	"github.com/magabrotheeeer/paid-signup/internal/http/handlers/admin/usercount"
	"github.com/magabrotheeeer/paid-signup/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/paid-signup/internal/http/handlers/health"
	"github.com/magabrotheeeer/paid-signup/internal/http/handlers/products/download"
	"github.com/magabrotheeeer/paid-signup/internal/http/handlers/registration/create"
	"github.com/magabrotheeeer/paid-signup/internal/http/handlers/registration/newform"
	"github.com/magabrotheeeer/paid-signup/internal/http/handlers/registration/payform"
	"github.com/magabrotheeeer/paid-signup/internal/http/middlewarectx"
	"github.com/magabrotheeeer/paid-signup/internal/http/params"
	"github.com/magabrotheeeer/paid-signup/internal/lib/jwt"
	"github.com/magabrotheeeer/paid-signup/internal/lib/password"
	"github.com/magabrotheeeer/paid-signup/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/paid-signup/internal/lib/sl"
	"github.com/magabrotheeeer/paid-signup/internal/metrics"
	"github.com/magabrotheeeer/paid-signup/internal/migrations"
	"github.com/magabrotheeeer/paid-signup/internal/paymentprovider"
	"github.com/magabrotheeeer/paid-signup/internal/services/auth"
	"github.com/magabrotheeeer/paid-signup/internal/services/enrollment"
	"github.com/magabrotheeeer/paid-signup/internal/services/registration"
	"github.com/magabrotheeeer/paid-signup/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение регистрации
type App struct {
	server  *http.Server
	logger  *slog.Logger
	watcher *rabbitmq.Watcher
	closers []io.Closer
}

// New подключает хранилище, кэш и брокер, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.signup.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.AccountsExchange, rabbitmq.GetEnrollmentQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	watcher := rabbitmq.Watch(conn.NotifyClose(make(chan *amqp.Error, 1)), logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := metrics.New(registry)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	service := registration.New(
		db,
		paymentprovider.NewClient(cfg.Payment.APIURL, cfg.Payment.SecretKey, cfg.Payment.Timeout, logger),
		enrollment.NewDispatcher(ch),
		password.NewHasher(bcrypt.DefaultCost),
		recorder,
		registration.Product{
			Amount:      cfg.Payment.ProductPrice,
			Currency:    cfg.Payment.Currency,
			Description: cfg.Payment.ProductTitle,
		},
		cfg.Payment.Timeout,
		logger,
	)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	paymentInfo := params.PaymentInfo{
		PublishableKey: cfg.Payment.PublishableKey,
		Amount:         cfg.Payment.ProductPrice,
		Description:    cfg.Payment.ProductTitle,
		Currency:       cfg.Payment.Currency,
	}
	policy := params.SignUp()

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Handlers{
		NewForm: newform.New(logger, paymentInfo),
		PayForm: payform.New(logger, policy, paymentInfo),
		Create:  create.New(logger, service, jwtMaker, policy, paymentInfo),
		SignIn:  login.New(logger, auth.New(db, jwtMaker)),
		Product: download.New(logger, map[string]string{cfg.Product.ID: cfg.Product.File}),
		Health: health.New(logger,
			health.Check{Name: "database", Ready: db.CheckDatabaseReady},
			health.Check{Name: "broker", Ready: watcher.CheckBrokerReady},
		),
		UserCount: usercount.New(logger, db, cacheRedis),
	}, jwtMaker, middlewarectx.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst), registry)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:  srv,
		logger:  logger,
		watcher: watcher,
		closers: []io.Closer{ch, conn, cacheRedis, db},
	}, nil
}

// Run запускает сервер и останавливает его при отмене ctx.
// Потеря соединения с брокером тоже останавливает сервер, Run возвращает ошибку.
func (a *App) Run(ctx context.Context) error {
	const op = "app.signup.Run"

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down HTTP server gracefully")
	case <-a.watcher.Closed():
		a.logger.Error("broker connection lost, shutting down HTTP server", sl.Err(a.watcher.Err()))
		runErr = fmt.Errorf("%s: %w", op, a.watcher.Err())
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(timeoutCtx); err != nil && runErr == nil {
		runErr = err
	}
	a.close()
	return runErr
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
}
