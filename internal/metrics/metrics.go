// Package metrics содержит Prometheus-коллекторы потока регистрации.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы регистрации
const (
	RegistrationCreated = "created"
	RegistrationInvalid = "invalid"
	RegistrationFailed  = "failed"
)

// Исходы списания
const (
	ChargePaid     = "paid"
	ChargeUnpaid   = "unpaid"
	ChargeDeclined = "declined"
	ChargeError    = "error"
	ChargeSkipped  = "skipped"
)

// Исходы подписки на рассылку
const (
	EnrollmentEnrolled  = "enrolled"
	EnrollmentDuplicate = "duplicate"
	EnrollmentSkipped   = "skipped"
	EnrollmentFailed    = "failed"
)

// Metrics набор счетчиков и гистограмм сервиса
type Metrics struct {
	registrations  *prometheus.CounterVec
	charges        *prometheus.CounterVec
	chargeDuration prometheus.Histogram
	enrollments    *prometheus.CounterVec
}

// New создает коллекторы и регистрирует их в reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	const op = "metrics.New"
	m := &Metrics{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signup_registrations_total",
			Help: "Account creation attempts by outcome.",
		}, []string{"outcome"}),
		charges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signup_charges_total",
			Help: "Charge gate results by outcome.",
		}, []string{"outcome"}),
		chargeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signup_charge_duration_seconds",
			Help:    "Duration of payment processor calls during sign-up.",
			Buckets: prometheus.DefBuckets,
		}),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signup_enrollments_total",
			Help: "Mailing list enrollment results by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.registrations, m.charges, m.chargeDuration, m.enrollments} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return m, nil
}

// Registration учитывает исход попытки регистрации
func (m *Metrics) Registration(outcome string) {
	m.registrations.WithLabelValues(outcome).Inc()
}

// Charge учитывает исход и длительность списания. Для пропущенного списания d не пишется.
func (m *Metrics) Charge(outcome string, d time.Duration) {
	m.charges.WithLabelValues(outcome).Inc()
	if outcome != ChargeSkipped {
		m.chargeDuration.Observe(d.Seconds())
	}
}

// Enrollment учитывает исход подписки на рассылку
func (m *Metrics) Enrollment(outcome string) {
	m.enrollments.WithLabelValues(outcome).Inc()
}
