package paymentprovider

import "fmt"

// Типы ошибок платежного процессора
const (
	ErrTypeCard           = "card_error"
	ErrTypeInvalidRequest = "invalid_request_error"
	ErrTypeAuthentication = "authentication_error"
	ErrTypeAPIConnection  = "api_connection_error"
	ErrTypeAPI            = "api_error"
	ErrTypeRateLimit      = "rate_limit_error"
)

// CustomerParams параметры создания клиента: email и токен платежного метода
type CustomerParams struct {
	Email  string
	Source string
}

// Customer клиент платежного процессора
type Customer struct {
	ID    string
	Email string
}

// ChargeParams параметры списания. Amount в минимальных единицах валюты.
type ChargeParams struct {
	Customer    string
	Amount      int64
	Currency    string
	Description string
}

// Charge результат списания
type Charge struct {
	ID          string
	Amount      int64
	Currency    string
	Description string
	Paid        bool
	Status      string
}

// Error ошибка, возвращенная процессором или возникшая при обращении к нему
type Error struct {
	Type       string
	Code       string
	Message    string
	Param      string
	HTTPStatus int
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment processor %s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("payment processor %s: %s", e.Type, e.Message)
}

// Rejected сообщает, что процессор отклонил запрос по существу (карта или параметры),
// а не из-за сбоя на его стороне.
func (e *Error) Rejected() bool {
	return e.Type == ErrTypeCard || e.Type == ErrTypeInvalidRequest
}
