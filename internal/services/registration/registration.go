// Package registration реализует создание учетной записи с оплатой:
// назначение роли, валидация, списание, сохранение и постановка задачи подписки на рассылку.
// Шаги выполняются строго по порядку, ошибка шага прерывает все последующие.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/paid-signup/internal/lib/sl"
	"github.com/magabrotheeeer/paid-signup/internal/metrics"
	"github.com/magabrotheeeer/paid-signup/internal/models"
	"github.com/magabrotheeeer/paid-signup/internal/paymentprovider"
	"github.com/magabrotheeeer/paid-signup/internal/storage/repository"
)

// AccountRepository хранилище учетных записей
type AccountRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	// CreateAccount возвращает repository.ErrEmailTaken при нарушении уникальности email.
	CreateAccount(ctx context.Context, account models.Account) (models.Account, error)
}

// PaymentGateway платежный процессор
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, params paymentprovider.CustomerParams) (*paymentprovider.Customer, error)
	CreateCharge(ctx context.Context, params paymentprovider.ChargeParams) (*paymentprovider.Charge, error)
}

// EnrollmentDispatcher ставит задачу подписки на рассылку в очередь
type EnrollmentDispatcher interface {
	Dispatch(ctx context.Context, account models.Account) error
}

// PasswordHasher хэширует пароль перед сохранением
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Recorder принимает метрики регистрации
type Recorder interface {
	Registration(outcome string)
	Charge(outcome string, d time.Duration)
}

// Product продаваемый продукт: сумма в центах, валюта и описание списания
type Product struct {
	Amount      int64
	Currency    string
	Description string
}

// Result успешное создание учетной записи
type Result struct {
	Account  models.Account
	ChargeID string
	Charged  bool
}

// Service выполняет создание учетной записи
type Service struct {
	accounts      AccountRepository
	payments      PaymentGateway
	dispatcher    EnrollmentDispatcher
	hasher        PasswordHasher
	recorder      Recorder
	product       Product
	chargeTimeout time.Duration
	validate      *validator.Validate
	log           *slog.Logger
}

// New создает Service. recorder может быть nil. chargeTimeout <= 0 заменяется на 10s.
func New(
	accounts AccountRepository,
	payments PaymentGateway,
	dispatcher EnrollmentDispatcher,
	hasher PasswordHasher,
	recorder Recorder,
	product Product,
	chargeTimeout time.Duration,
	log *slog.Logger,
) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if chargeTimeout <= 0 {
		chargeTimeout = 10 * time.Second
	}
	return &Service{
		accounts:      accounts,
		payments:      payments,
		dispatcher:    dispatcher,
		hasher:        hasher,
		recorder:      recorder,
		product:       product,
		chargeTimeout: chargeTimeout,
		validate:      validator.New(),
		log:           log,
	}
}

// creation состояние одной попытки создания
type creation struct {
	input   models.SignUp
	account models.Account
	charge  *paymentprovider.Charge
}

type step struct {
	name string
	run  func(ctx context.Context, c *creation) error
}

func (s *Service) steps() []step {
	return []step{
		{name: "assign_default_role", run: func(_ context.Context, c *creation) error {
			assignDefaultRole(c)
			return nil
		}},
		{name: "validate", run: s.validateInput},
		{name: "charge", run: s.chargeGate},
		{name: "commit", run: s.commit},
		{name: "dispatch_enrollment", run: s.dispatchEnrollment},
	}
}

// Create проводит попытку создания учетной записи через все шаги.
// Ошибки, которые нужно показать пользователю, имеют тип *ValidationError,
// в этом случае учетная запись не сохранена и задача не поставлена.
func (s *Service) Create(ctx context.Context, input models.SignUp) (*Result, error) {
	const op = "registration.Create"
	log := s.log.With(sl.Op(op))

	c := &creation{input: input}
	for _, st := range s.steps() {
		if err := st.run(ctx, c); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				s.recorder.Registration(metrics.RegistrationInvalid)
				log.Info("account rejected", slog.String("step", st.name), slog.Any("errors", verr.FullMessages()))
				return nil, verr
			}
			s.recorder.Registration(metrics.RegistrationFailed)
			log.Error("account creation failed", slog.String("step", st.name), sl.Err(err))
			return nil, fmt.Errorf("%s: %s: %w", op, st.name, err)
		}
	}

	s.recorder.Registration(metrics.RegistrationCreated)
	log.Info("account created",
		slog.String("account_uuid", c.account.UUID),
		slog.String("role", string(c.account.Role)),
	)

	res := &Result{Account: c.account}
	if c.charge != nil {
		res.ChargeID = c.charge.ID
		res.Charged = c.charge.Paid
	}
	return res, nil
}

// chargeGate списывает оплату, если роль этого требует. Роли без оплаты пропускают шаг целиком,
// даже если токен передан.
func (s *Service) chargeGate(ctx context.Context, c *creation) error {
	const op = "registration.chargeGate"
	log := s.log.With(sl.Op(op), slog.String("email", c.input.Email))

	if !c.input.Role.RequiresPayment() {
		s.recorder.Charge(metrics.ChargeSkipped, 0)
		log.Info("charge skipped", slog.String("role", string(c.input.Role)))
		return nil
	}

	if c.input.PaymentToken == "" {
		verr := &ValidationError{}
		verr.AddBase(MsgCardNotVerified)
		return verr
	}

	ctx, cancel := context.WithTimeout(ctx, s.chargeTimeout)
	defer cancel()
	start := time.Now()

	customer, err := s.payments.CreateCustomer(ctx, paymentprovider.CustomerParams{
		Email:  c.input.Email,
		Source: c.input.PaymentToken,
	})
	if err != nil {
		return s.chargeFailure(log, err, time.Since(start))
	}

	charge, err := s.payments.CreateCharge(ctx, paymentprovider.ChargeParams{
		Customer:    customer.ID,
		Amount:      s.product.Amount,
		Currency:    s.product.Currency,
		Description: s.product.Description,
	})
	if err != nil {
		return s.chargeFailure(log, err, time.Since(start))
	}
	c.charge = charge

	if !charge.Paid {
		s.recorder.Charge(metrics.ChargeUnpaid, time.Since(start))
		log.Warn("charge created but not paid",
			slog.String("charge_id", charge.ID),
			slog.String("status", charge.Status),
		)
		return nil
	}

	s.recorder.Charge(metrics.ChargePaid, time.Since(start))
	log.Info("transaction completed",
		slog.String("customer_id", customer.ID),
		slog.String("charge_id", charge.ID),
		slog.Int64("amount", charge.Amount),
		slog.String("currency", charge.Currency),
	)
	return nil
}

func (s *Service) chargeFailure(log *slog.Logger, err error, d time.Duration) error {
	verr := &ValidationError{}
	if pe, ok := paymentprovider.AsError(err); ok && pe.Rejected() {
		s.recorder.Charge(metrics.ChargeDeclined, d)
		log.Info("payment rejected", slog.String("type", pe.Type), slog.String("code", pe.Code))
		verr.AddBase(pe.Message)
		return verr
	}
	s.recorder.Charge(metrics.ChargeError, d)
	log.Error("payment processor failure", sl.Err(err))
	verr.AddBase(MsgPaymentFailed)
	return verr
}

// commit хэширует пароль и сохраняет учетную запись
func (s *Service) commit(ctx context.Context, c *creation) error {
	const op = "registration.commit"

	hash, err := s.hasher.Hash(c.input.Password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	account, err := s.accounts.CreateAccount(ctx, models.Account{
		Email:        c.input.Email,
		PasswordHash: hash,
		Role:         c.input.Role,
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		if c.charge != nil {
			s.log.Warn("email taken after charge",
				sl.Op(op),
				slog.String("email", c.input.Email),
				slog.String("charge_id", c.charge.ID),
			)
		}
		verr := &ValidationError{}
		verr.Add("email", MsgTaken)
		return verr
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.account = account
	return nil
}

// dispatchEnrollment ставит одну задачу подписки на рассылку для сохраненной учетной записи
func (s *Service) dispatchEnrollment(ctx context.Context, c *creation) error {
	const op = "registration.dispatchEnrollment"
	if err := s.dispatcher.Dispatch(ctx, c.account); err != nil {
		return fmt.Errorf("%s: account %s persisted: %w", op, c.account.UUID, err)
	}
	return nil
}

type nopRecorder struct{}

func (nopRecorder) Registration(string)          {}
func (nopRecorder) Charge(string, time.Duration) {}
