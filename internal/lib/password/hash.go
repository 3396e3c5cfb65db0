// Package password хеширует и проверяет пароли учетных записей с помощью bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength максимальная длина пароля в байтах, которую принимает bcrypt.
const MaxLength = 72

// ErrMismatch возвращается CompareHash, если пароль не совпадает с хэшем.
var ErrMismatch = errors.New("password does not match")

// Hasher хэширует пароли с заданной стоимостью bcrypt.
type Hasher struct {
	cost int
}

// NewHasher создает Hasher. Стоимость вне допустимого диапазона заменяется на bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash возвращает bcrypt-хэш пароля для хранения в базе данных.
func (h *Hasher) Hash(password string) (string, error) {
	const op = "password.Hash"
	if len(password) > MaxLength {
		return "", fmt.Errorf("%s: %w", op, bcrypt.ErrPasswordTooLong)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareHash сравнивает bcrypt-хэш с паролем. nil означает совпадение.
func CompareHash(hash, password string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
