// Package auth проверяет учетные данные и выпускает сессионный токен.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/paid-signup/internal/lib/password"
	"github.com/magabrotheeeer/paid-signup/internal/models"
	"github.com/magabrotheeeer/paid-signup/internal/storage/repository"
)

// ErrInvalidCredentials неизвестный email или неверный пароль
var ErrInvalidCredentials = errors.New("invalid credentials")

// AccountFinder ищет учетную запись по email
type AccountFinder interface {
	GetAccountByEmail(ctx context.Context, email string) (models.Account, error)
}

// TokenMaker выпускает JWT для учетной записи
type TokenMaker interface {
	GenerateToken(account models.Account) (string, error)
}

// Service вход по email и паролю
type Service struct {
	accounts AccountFinder
	tokens   TokenMaker
}

// New создает Service
func New(accounts AccountFinder, tokens TokenMaker) *Service {
	return &Service{
		accounts: accounts,
		tokens:   tokens,
	}
}

// Login проверяет пароль и возвращает токен вместе с учетной записью.
// Отсутствие учетной записи и несовпадение пароля неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (string, models.Account, error) {
	const op = "services.auth.Login"

	account, err := s.accounts.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrAccountNotFound) {
		return "", models.Account{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return "", models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(account.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return "", models.Account{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.GenerateToken(account)
	if err != nil {
		return "", models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return token, account, nil
}
