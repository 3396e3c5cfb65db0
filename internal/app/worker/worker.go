// Package worker собирает процесс, который подписывает новые учетные записи на рассылку.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/paid-signup/internal/cache"
	"github.com/magabrotheeeer/paid-signup/internal/config"
	"github.com/magabrotheeeer/paid-signup/internal/lib/httpretry"
	"github.com/magabrotheeeer/paid-signup/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/paid-signup/internal/lib/sl"
	"github.com/magabrotheeeer/paid-signup/internal/mailinglist"
	"github.com/magabrotheeeer/paid-signup/internal/metrics"
	"github.com/magabrotheeeer/paid-signup/internal/services/enrollment"
)

const (
	retryBaseDelay  = 500 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

// App воркер подписки на рассылку
type App struct {
	consumer rabbitmq.Consumer
	handler  rabbitmq.Handler
	metrics  *http.Server
	closers  []io.Closer
	logger   *slog.Logger
}

// New подключает брокер и Redis и собирает клиента провайдера рассылки.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.worker.New"

	retry := httpretry.NewRetryClient(
		&http.Client{Timeout: cfg.MailingList.Timeout},
		cfg.MailingList.MaxRetries,
		retryBaseDelay,
		logger,
	)
	client, err := mailinglist.NewClient(cfg.MailingList.APIURL, cfg.MailingList.APIKey, retry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	registry := prometheus.NewRegistry()
	recorder, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.AccountsExchange, rabbitmq.GetEnrollmentQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metricsSrv := &http.Server{
		Addr:              cfg.MailingList.MetricsAddress,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: cfg.TimeoutHTTP,
	}

	enroller := enrollment.NewEnroller(client, cfg.MailingList.ListID, cacheRedis, recorder, logger)

	return &App{
		consumer: ch,
		handler:  enroller.Handle,
		metrics:  metricsSrv,
		closers:  []io.Closer{ch, conn, cacheRedis},
		logger:   logger,
	}, nil
}

// Run потребляет задачи до отмены ctx. Если брокер закрыл доставку,
// Run останавливается и возвращает ошибку, чтобы процесс был перезапущен.
func (a *App) Run(ctx context.Context) error {
	const op = "app.worker.Run"

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done, err := rabbitmq.ConsumerMessage(ctx, a.consumer, rabbitmq.MailingListSignupQueue, a.handler, a.logger)
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.MailingListSignupQueue), sl.Err(err))
		a.close()
		return fmt.Errorf("%s: %w", op, err)
	}

	go func() {
		a.logger.Info("metrics server starting on", slog.String("address", a.metrics.Addr))
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("mailing list worker shutting down gracefully")
	case err, ok := <-done:
		if ok && err != nil {
			a.logger.Error("consumer stopped", sl.Err(err))
			runErr = fmt.Errorf("%s: %w", op, err)
		}
	}

	timeoutCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := a.metrics.Shutdown(timeoutCtx); err != nil {
		a.logger.Error("failed to stop metrics server", sl.Err(err))
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
