package models

import "time"

// EnrollmentTask отложенный запрос на подписку адреса учетной записи на рассылку.
// Хранит снимок email и идентификатора на момент постановки в очередь.
type EnrollmentTask struct {
	ID          string    `json:"id"`
	AccountUUID string    `json:"account_uuid"`
	Email       string    `json:"email"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}
