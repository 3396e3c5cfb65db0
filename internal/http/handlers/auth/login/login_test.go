package login

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/paid-signup/internal/models"
	"github.com/magabrotheeeer/paid-signup/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, email, password string) (string, models.Account, error) {
	args := m.Called(ctx, email, password)
	account, _ := args.Get(1).(models.Account)
	return args.String(0), account, args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

type apiResponse struct {
	Status string   `json:"status"`
	Error  string   `json:"error"`
	Data   SignedIn `json:"data"`
}

func doRequest(t *testing.T, h http.Handler, contentType, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/users/sign_in", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestHandler_ServeHTTP(t *testing.T) {
	admin := models.Account{UUID: "a1", Email: "admin@x.com", PasswordHash: "hash", Role: models.RoleAdmin}

	tests := []struct {
		name        string
		contentType string
		body        string
		setup       func(s *ServiceMock)
		wantCode    int
		wantError   string
		wantToken   string
	}{
		{
			name:        "valid json",
			contentType: "application/json",
			body:        `{"user":{"email":"admin@x.com","password":"secret1","role":"user"}}`,
			setup: func(s *ServiceMock) {
				s.On("Login", mock.Anything, "admin@x.com", "secret1").Return("jwt-token", admin, nil).Once()
			},
			wantCode:  http.StatusOK,
			wantToken: "jwt-token",
		},
		{
			name:        "valid urlencoded form",
			contentType: "application/x-www-form-urlencoded",
			body:        url.Values{"user[email]": {"admin@x.com"}, "user[password]": {"secret1"}}.Encode(),
			setup: func(s *ServiceMock) {
				s.On("Login", mock.Anything, "admin@x.com", "secret1").Return("jwt-token", admin, nil).Once()
			},
			wantCode:  http.StatusOK,
			wantToken: "jwt-token",
		},
		{
			name:        "invalid json",
			contentType: "application/json",
			body:        "not a json",
			setup:       func(*ServiceMock) {},
			wantCode:    http.StatusBadRequest,
			wantError:   "invalid request body",
		},
		{
			name:        "missing password",
			contentType: "application/json",
			body:        `{"user":{"email":"admin@x.com"}}`,
			setup:       func(*ServiceMock) {},
			wantCode:    http.StatusUnprocessableEntity,
			wantError:   "email and password are required",
		},
		{
			name:        "invalid credentials",
			contentType: "application/json",
			body:        `{"user":{"email":"admin@x.com","password":"wrong"}}`,
			setup: func(s *ServiceMock) {
				s.On("Login", mock.Anything, "admin@x.com", "wrong").
					Return("", models.Account{}, fmt.Errorf("services.auth.Login: %w", auth.ErrInvalidCredentials)).Once()
			},
			wantCode:  http.StatusUnauthorized,
			wantError: "invalid email or password",
		},
		{
			name:        "service failure",
			contentType: "application/json",
			body:        `{"user":{"email":"admin@x.com","password":"secret1"}}`,
			setup: func(s *ServiceMock) {
				s.On("Login", mock.Anything, "admin@x.com", "secret1").
					Return("", models.Account{}, errors.New("connection reset")).Once()
			},
			wantCode:  http.StatusInternalServerError,
			wantError: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setup(svc)

			w, resp := doRequest(t, New(newNoopLogger(), svc), tt.contentType, tt.body)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantError, resp.Error)
			if tt.wantToken != "" {
				assert.Equal(t, "OK", resp.Status)
				assert.Equal(t, tt.wantToken, resp.Data.Token)
				assert.Equal(t, admin.UUID, resp.Data.Account.UUID)
				assert.Equal(t, models.RoleAdmin, resp.Data.Account.Role)
				assert.NotContains(t, w.Body.String(), "hash")
			}
			svc.AssertExpectations(t)
		})
	}
}
