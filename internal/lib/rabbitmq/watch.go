package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/paid-signup/internal/lib/sl"
)

// ErrConnectionClosed соединение с брокером потеряно.
var ErrConnectionClosed = errors.New("broker connection closed")

// Watcher следит за соединением с брокером по уведомлению NotifyClose.
type Watcher struct {
	closed chan struct{}
	mu     sync.RWMutex
	err    error
}

// Watch начинает следить за notify, обычно conn.NotifyClose(make(chan *amqp.Error, 1)).
// Закрытие notify без ошибки тоже считается потерей соединения.
func Watch(notify <-chan *amqp.Error, log *slog.Logger) *Watcher {
	const op = "rabbitmq.Watch"
	w := &Watcher{closed: make(chan struct{})}
	go func() {
		amqpErr, ok := <-notify
		err := ErrConnectionClosed
		if ok && amqpErr != nil {
			err = fmt.Errorf("%w: %s", ErrConnectionClosed, amqpErr.Error())
		}
		log.Error("broker connection lost", sl.Op(op), sl.Err(err))

		w.mu.Lock()
		w.err = err
		w.mu.Unlock()
		close(w.closed)
	}()
	return w
}

// Closed закрывается, когда соединение потеряно.
func (w *Watcher) Closed() <-chan struct{} {
	return w.closed
}

// Err возвращает причину потери соединения или nil, пока оно живо.
func (w *Watcher) Err() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.err
}

// CheckBrokerReady возвращает ошибку, если соединение с брокером потеряно.
func (w *Watcher) CheckBrokerReady(_ context.Context) error {
	const op = "rabbitmq.CheckBrokerReady"
	if err := w.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
