package enrollment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/paid-signup/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/paid-signup/internal/models"
)

// Dispatcher публикует задачи подписки на рассылку в RabbitMQ
type Dispatcher struct {
	mu sync.Mutex
	ch rabbitmq.Publisher
}

// NewDispatcher создает Dispatcher поверх канала AMQP
func NewDispatcher(ch rabbitmq.Publisher) *Dispatcher {
	return &Dispatcher{ch: ch}
}

// Dispatch ставит одну задачу со снимком email и uuid учетной записи.
// Не ждет выполнения задачи.
func (d *Dispatcher) Dispatch(ctx context.Context, account models.Account) error {
	const op = "enrollment.Dispatch"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	task := models.EnrollmentTask{
		ID:          uuid.NewString(),
		AccountUUID: account.UUID,
		Email:       account.Email,
		EnqueuedAt:  time.Now().UTC(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := rabbitmq.PublishMessage(d.ch, rabbitmq.AccountsExchange, rabbitmq.MailingListSignupKey, task.ID, task); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
