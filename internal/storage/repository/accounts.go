package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/paid-signup/internal/models"
)

// CreateAccount сохраняет учетную запись и возвращает ее с присвоенными uid и created_at.
// Нарушение уникальности email возвращается как ErrEmailTaken.
func (s *Storage) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	const op = "storage.CreateAccount"
	select {
	case <-ctx.Done():
		return models.Account{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO accounts (email, password_hash, role)
			  VALUES ($1, $2, $3)
			  RETURNING uid, created_at;`
	if err := s.DB.QueryRowContext(ctx, query,
		account.Email, account.PasswordHash, string(account.Role),
	).Scan(&account.UUID, &account.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return models.Account{}, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

// EmailExists проверяет, занят ли email (без учета регистра).
func (s *Storage) EmailExists(ctx context.Context, email string) (bool, error) {
	const op = "storage.EmailExists"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE LOWER(email) = LOWER($1))`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// GetAccountByEmail ищет учетную запись по email без учета регистра.
// Если записи нет, возвращается ErrAccountNotFound.
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	const op = "storage.GetAccountByEmail"
	select {
	case <-ctx.Done():
		return models.Account{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, password_hash, role, created_at
			  FROM accounts
			  WHERE LOWER(email) = LOWER($1)`
	var (
		account models.Account
		role    string
	)
	err := s.DB.QueryRowContext(ctx, query, email).Scan(
		&account.UUID, &account.Email, &account.PasswordHash, &role, &account.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	account.Role = models.Role(role)
	return account, nil
}

// CountAccounts возвращает число зарегистрированных учетных записей.
func (s *Storage) CountAccounts(ctx context.Context) (int, error) {
	const op = "storage.CountAccounts"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
