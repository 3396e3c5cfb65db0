// Package params разбирает отправленную форму регистрации и фильтрует поля
// по списку разрешенных.
package params

import "github.com/magabrotheeeer/paid-signup/internal/models"

// Поля учетной записи, которые может прислать клиент
const (
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldPasswordConfirmation = "password_confirmation"
	FieldStripeToken          = "stripe_token"
)

// Policy список полей, которые обработчику разрешено читать
type Policy struct {
	allowed map[string]struct{}
}

// NewPolicy создает Policy из перечня полей
func NewPolicy(fields ...string) Policy {
	allowed := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		allowed[f] = struct{}{}
	}
	return Policy{allowed: allowed}
}

// SignUp политика самостоятельной регистрации: email, пароль, подтверждение и токен карты.
// Роль в нее не входит.
func SignUp() Policy {
	return NewPolicy(FieldEmail, FieldPassword, FieldPasswordConfirmation, FieldStripeToken)
}

// SignIn политика входа: только email и пароль.
func SignIn() Policy {
	return NewPolicy(FieldEmail, FieldPassword)
}

// Allowed сообщает, разрешено ли поле
func (p Policy) Allowed(field string) bool {
	_, ok := p.allowed[field]
	return ok
}

// Permit возвращает копию submitted только с разрешенными полями
func (p Policy) Permit(submitted map[string]string) map[string]string {
	permitted := make(map[string]string, len(p.allowed))
	for k, v := range submitted {
		if p.Allowed(k) {
			permitted[k] = v
		}
	}
	return permitted
}

// ToSignUp собирает входные данные создания из разрешенных полей. Роль не заполняется никогда.
func ToSignUp(permitted map[string]string) models.SignUp {
	return models.SignUp{
		Email:                permitted[FieldEmail],
		Password:             permitted[FieldPassword],
		PasswordConfirmation: permitted[FieldPasswordConfirmation],
		PaymentToken:         permitted[FieldStripeToken],
	}
}
