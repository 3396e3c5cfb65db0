package login

import (
	"context"

	"github.com/magabrotheeeer/paid-signup/internal/models"
)

// Service проверяет учетные данные и выпускает токен
type Service interface {
	Login(ctx context.Context, email, password string) (string, models.Account, error)
}
