package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/paid-signup/internal/lib/password"
	"github.com/magabrotheeeer/paid-signup/internal/models"
	"github.com/magabrotheeeer/paid-signup/internal/services/auth"
	"github.com/magabrotheeeer/paid-signup/internal/storage/repository"
)

type AccountFinderMock struct {
	mock.Mock
}

func (m *AccountFinderMock) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(models.Account)
	return account, args.Error(1)
}

type TokenMakerMock struct {
	mock.Mock
}

func (m *TokenMakerMock) GenerateToken(account models.Account) (string, error) {
	args := m.Called(account)
	return args.String(0), args.Error(1)
}

func TestService_Login(t *testing.T) {
	hash, err := password.NewHasher(bcrypt.MinCost).Hash("secret1")
	require.NoError(t, err)
	admin := models.Account{UUID: "a1", Email: "admin@x.com", PasswordHash: hash, Role: models.RoleAdmin}

	tests := []struct {
		name      string
		email     string
		password  string
		setup     func(r *AccountFinderMock, tm *TokenMakerMock)
		wantToken string
		wantErr   error
		wantOther bool
	}{
		{
			name:     "success with normalized email",
			email:    "  Admin@X.com ",
			password: "secret1",
			setup: func(r *AccountFinderMock, tm *TokenMakerMock) {
				r.On("GetAccountByEmail", mock.Anything, "admin@x.com").Return(admin, nil).Once()
				tm.On("GenerateToken", admin).Return("jwt-token", nil).Once()
			},
			wantToken: "jwt-token",
		},
		{
			name:     "unknown email",
			email:    "nobody@x.com",
			password: "secret1",
			setup: func(r *AccountFinderMock, _ *TokenMakerMock) {
				r.On("GetAccountByEmail", mock.Anything, "nobody@x.com").
					Return(models.Account{}, repository.ErrAccountNotFound).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "admin@x.com",
			password: "wrong-password",
			setup: func(r *AccountFinderMock, _ *TokenMakerMock) {
				r.On("GetAccountByEmail", mock.Anything, "admin@x.com").Return(admin, nil).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "repository failure",
			email:    "admin@x.com",
			password: "secret1",
			setup: func(r *AccountFinderMock, _ *TokenMakerMock) {
				r.On("GetAccountByEmail", mock.Anything, "admin@x.com").
					Return(models.Account{}, errors.New("connection reset")).Once()
			},
			wantOther: true,
		},
		{
			name:     "token failure",
			email:    "admin@x.com",
			password: "secret1",
			setup: func(r *AccountFinderMock, tm *TokenMakerMock) {
				r.On("GetAccountByEmail", mock.Anything, "admin@x.com").Return(admin, nil).Once()
				tm.On("GenerateToken", admin).Return("", errors.New("sign failed")).Once()
			},
			wantOther: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(AccountFinderMock)
			tokens := new(TokenMakerMock)
			tt.setup(repo, tokens)

			token, account, err := auth.New(repo, tokens).Login(context.Background(), tt.email, tt.password)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
			case tt.wantOther:
				require.Error(t, err)
				assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				assert.Equal(t, admin, account)
			}
			repo.AssertExpectations(t)
			tokens.AssertExpectations(t)
		})
	}
}
