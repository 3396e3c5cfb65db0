package registration

import (
	"sort"
	"strings"
)

// Сообщения об ошибках, показываемые пользователю
const (
	MsgBlank           = "can't be blank"
	MsgInvalid         = "is invalid"
	MsgTaken           = "has already been taken"
	MsgTooShort        = "is too short (minimum is %s characters)"
	MsgTooLong         = "is too long (maximum is %s characters)"
	MsgConfirmation    = "doesn't match Password"
	MsgNotIncluded     = "is not included in the list"
	MsgCardNotVerified = "Could not verify card."
	MsgPaymentFailed   = "Payment could not be processed. Please try again later."
)

var fieldOrder = []string{"email", "password", "password_confirmation", "role"}

// ValidationError ошибка валидации учетной записи, пригодная для показа пользователю.
// Fields хранит ошибки по полям, Base ошибки, не привязанные к полю.
type ValidationError struct {
	Fields map[string][]string `json:"fields,omitempty"`
	Base   []string            `json:"base,omitempty"`
}

// Add добавляет ошибку поля
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// AddBase добавляет общую ошибку
func (e *ValidationError) AddBase(msg string) {
	e.Base = append(e.Base, msg)
}

// Empty сообщает, что ошибок нет
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0 && len(e.Base) == 0
}

// Has сообщает, есть ли ошибки у поля
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// FullMessages возвращает сообщения вида "Email has already been taken" в стабильном порядке.
func (e *ValidationError) FullMessages() []string {
	msgs := make([]string, 0, len(e.Base)+len(e.Fields))
	seen := make(map[string]bool, len(fieldOrder))
	for _, f := range fieldOrder {
		seen[f] = true
		for _, m := range e.Fields[f] {
			msgs = append(msgs, humanize(f)+" "+m)
		}
	}
	rest := make([]string, 0)
	for f := range e.Fields {
		if !seen[f] {
			rest = append(rest, f)
		}
	}
	sort.Strings(rest)
	for _, f := range rest {
		for _, m := range e.Fields[f] {
			msgs = append(msgs, humanize(f)+" "+m)
		}
	}
	return append(msgs, e.Base...)
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.FullMessages(), "; ")
}

func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
