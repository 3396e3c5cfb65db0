package create

import (
	"context"

	"github.com/magabrotheeeer/paid-signup/internal/models"
	"github.com/magabrotheeeer/paid-signup/internal/services/registration"
)

// Service создает учетную запись
type Service interface {
	Create(ctx context.Context, input models.SignUp) (*registration.Result, error)
}

// TokenMaker выпускает сессионный токен для созданной учетной записи
type TokenMaker interface {
	GenerateToken(account models.Account) (string, error)
}
