// Package enrollment подписывает адреса зарегистрированных учетных записей на рассылку.
// Dispatcher ставит задачу в очередь, Enroller выполняет ее в воркере.
package enrollment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/paid-signup/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/paid-signup/internal/lib/sl"
	"github.com/magabrotheeeer/paid-signup/internal/mailinglist"
	"github.com/magabrotheeeer/paid-signup/internal/metrics"
	"github.com/magabrotheeeer/paid-signup/internal/models"
)

// MarkerTTL срок хранения отметки о выполненной подписке
const MarkerTTL = 30 * 24 * time.Hour

// MailingList провайдер рассылки
type MailingList interface {
	AddMember(ctx context.Context, listID, email string) (*mailinglist.Member, error)
}

// Marker хранилище отметок о выполненной подписке
type Marker interface {
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Recorder принимает метрики подписки
type Recorder interface {
	Enrollment(outcome string)
}

// Enroller выполняет задачи подписки
type Enroller struct {
	client   MailingList
	listID   string
	marker   Marker
	recorder Recorder
	log      *slog.Logger
}

// NewEnroller создает Enroller. marker и recorder могут быть nil.
func NewEnroller(client MailingList, listID string, marker Marker, recorder Recorder, log *slog.Logger) *Enroller {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Enroller{
		client:   client,
		listID:   listID,
		marker:   marker,
		recorder: recorder,
		log:      log,
	}
}

func markerKey(accountUUID string) string {
	return "enrollment:" + accountUUID
}

// Enroll подписывает email задачи на список. Повторная подписка того же адреса
// считается успехом. Ошибка возвращается вызывающему, который решает о повторе.
func (e *Enroller) Enroll(ctx context.Context, task models.EnrollmentTask) error {
	const op = "enrollment.Enroll"
	log := e.log.With(sl.Op(op), slog.String("account_uuid", task.AccountUUID), slog.String("task_id", task.ID))

	if e.alreadyEnrolled(ctx, task, log) {
		e.recorder.Enrollment(metrics.EnrollmentSkipped)
		log.Info("account already enrolled, skipping")
		return nil
	}

	member, err := e.client.AddMember(ctx, e.listID, task.Email)
	switch {
	case errors.Is(err, mailinglist.ErrMemberExists):
		e.recorder.Enrollment(metrics.EnrollmentDuplicate)
		log.Info("email already subscribed")
	case err != nil:
		e.recorder.Enrollment(metrics.EnrollmentFailed)
		return fmt.Errorf("%s: %w", op, err)
	default:
		e.recorder.Enrollment(metrics.EnrollmentEnrolled)
		log.Info("email subscribed", slog.String("member_id", member.ID))
	}

	e.markEnrolled(ctx, task, log)
	return nil
}

func (e *Enroller) alreadyEnrolled(ctx context.Context, task models.EnrollmentTask, log *slog.Logger) bool {
	if e.marker == nil || task.AccountUUID == "" {
		return false
	}
	ok, err := e.marker.Exists(ctx, markerKey(task.AccountUUID))
	if err != nil {
		log.Warn("failed to check enrollment marker", sl.Err(err))
		return false
	}
	return ok
}

func (e *Enroller) markEnrolled(ctx context.Context, task models.EnrollmentTask, log *slog.Logger) {
	if e.marker == nil || task.AccountUUID == "" {
		return
	}
	if err := e.marker.Set(ctx, markerKey(task.AccountUUID), task.EnqueuedAt, MarkerTTL); err != nil {
		log.Warn("failed to set enrollment marker", sl.Err(err))
	}
}

// Handle разбирает сообщение очереди и выполняет задачу.
// Неразбираемые сообщения и задачи без email помечаются rabbitmq.ErrPermanent.
func (e *Enroller) Handle(ctx context.Context, body []byte) error {
	const op = "enrollment.Handle"
	var task models.EnrollmentTask
	if err := json.Unmarshal(body, &task); err != nil {
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrPermanent, err)
	}
	if task.Email == "" {
		return fmt.Errorf("%s: %w: task %q has no email", op, rabbitmq.ErrPermanent, task.ID)
	}
	if err := e.Enroll(ctx, task); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type nopRecorder struct{}

func (nopRecorder) Enrollment(string) {}
