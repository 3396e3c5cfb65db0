// Package jwt выпускает и проверяет сессионные JWT токены учетных записей.
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims данные учетной записи, хранящиеся в токене.
// Subject содержит UUID учетной записи.
type CustomClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}
