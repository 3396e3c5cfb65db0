package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/paid-signup/internal/lib/sl"
)

var (
	// ErrPermanent помечает ошибку обработчика, после которой сообщение не возвращается в очередь.
	ErrPermanent = errors.New("permanent failure")
	// ErrDeliveryClosed брокер закрыл канал доставки, новых сообщений не будет.
	ErrDeliveryClosed = errors.New("delivery channel closed")
)

// Consumer часть *amqp.Channel, нужная для потребления.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Handler обрабатывает тело одного сообщения.
type Handler func(ctx context.Context, body []byte) error

// ConsumerMessage запускает потребителя очереди с ручным подтверждением.
// Одновременно обрабатывается не более prefetchCount сообщений.
// Ошибка обработчика возвращает сообщение в очередь, кроме ошибок ErrPermanent.
// Возвращаемый канал получает ErrDeliveryClosed, если брокер закрыл доставку,
// и закрывается, когда потребитель остановлен.
func ConsumerMessage(ctx context.Context, ch Consumer, queueName string, handler Handler, log *slog.Logger) (<-chan error, error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(sl.Op(op), slog.String("queue", queueName))
	done := make(chan error, 1)
	sem := make(chan struct{}, prefetchCount)
	go func() {
		defer close(done)
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					if ctx.Err() != nil {
						return
					}
					log.Error("delivery channel closed by broker")
					done <- fmt.Errorf("%s: %w", op, ErrDeliveryClosed)
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					settle(ctx, d, handler, log)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return done, nil
}

func settle(ctx context.Context, d amqp.Delivery, handler Handler, log *slog.Logger) {
	log = log.With(slog.String("message_id", d.MessageId))
	if err := handler(ctx, d.Body); err != nil {
		requeue := !errors.Is(err, ErrPermanent)
		log.Error("failed to handle message", sl.Err(err), slog.Bool("requeue", requeue))
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
