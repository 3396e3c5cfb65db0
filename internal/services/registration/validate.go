package registration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/paid-signup/internal/lib/password"
	"github.com/magabrotheeeer/paid-signup/internal/models"
)

var structFieldNames = map[string]string{
	"Email":                "email",
	"Password":             "password",
	"PasswordConfirmation": "password_confirmation",
}

// normalizeEmail убирает пробелы по краям и приводит адрес к нижнему регистру
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateInput проверяет формат полей и уникальность email.
// Возвращает *ValidationError с накопленными ошибками или ошибку хранилища.
func (s *Service) validateInput(ctx context.Context, c *creation) error {
	const op = "registration.validateInput"

	c.input.Email = normalizeEmail(c.input.Email)
	verr := &ValidationError{}

	if !c.input.Role.Valid() {
		verr.Add("role", MsgNotIncluded)
	}

	if err := s.validate.Struct(c.input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%s: %w", op, err)
		}
		for _, fe := range fieldErrs {
			field, ok := structFieldNames[fe.StructField()]
			if !ok {
				continue
			}
			verr.Add(field, messageFor(fe))
		}
	}

	if !verr.Has("password") && len(c.input.Password) > password.MaxLength {
		verr.Add("password", fmt.Sprintf(MsgTooLong, strconv.Itoa(password.MaxLength)))
	}

	if !verr.Has("email") {
		taken, err := s.accounts.EmailExists(ctx, c.input.Email)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if taken {
			verr.Add("email", MsgTaken)
		}
	}

	if !verr.Empty() {
		return verr
	}
	return nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgBlank
	case "email":
		return MsgInvalid
	case "min":
		return fmt.Sprintf(MsgTooShort, fe.Param())
	case "max":
		return fmt.Sprintf(MsgTooLong, fe.Param())
	case "eqfield":
		return MsgConfirmation
	default:
		return MsgInvalid
	}
}

// assignDefaultRole назначает роль user, если роль не задана
func assignDefaultRole(c *creation) {
	if c.input.Role == "" {
		c.input.Role = models.RoleUser
	}
}
