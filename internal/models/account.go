// Package models содержит доменные структуры регистрации: учетную запись,
// роль, входные данные создания учетной записи и задачу подписки на рассылку.
package models

import (
	"fmt"
	"time"
)

// Role роль учетной записи.
type Role string

const (
	// RoleUser роль по умолчанию для новых учетных записей.
	RoleUser Role = "user"
	// RoleVIP расширенная роль, назначается вне потока регистрации.
	RoleVIP Role = "vip"
	// RoleAdmin администратор, освобожден от оплаты при создании.
	RoleAdmin Role = "admin"
)

// Valid сообщает, входит ли роль в перечисление.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleVIP, RoleAdmin:
		return true
	}
	return false
}

// RequiresPayment сообщает, должна ли учетная запись с этой ролью пройти оплату при создании.
func (r Role) RequiresPayment() bool {
	return r != RoleAdmin
}

// ParseRole преобразует строку в Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Account представляет зарегистрированную учетную запись.
type Account struct {
	UUID         string    `json:"uuid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// SignUp входные данные для создания учетной записи.
// PaymentToken живет только в рамках запроса и никогда не сохраняется.
// Пустое PasswordConfirmation не совпадает с паролем.
type SignUp struct {
	Email                string `validate:"required,email"`
	Password             string `validate:"required,min=6,max=72"`
	PasswordConfirmation string `validate:"eqfield=Password"`
	PaymentToken         string
	Role                 Role
}
