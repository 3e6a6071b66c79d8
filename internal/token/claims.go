package token

import (
	"github.com/golang-jwt/jwt/v5"

	"board-service/internal/domain/user"
)

// Type discriminates access tokens from refresh tokens.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

func (t Type) Valid() bool {
	return t == TypeAccess || t == TypeRefresh
}

// Claims is the payload carried by every token the Codec issues. Subject is the
// user's email.
type Claims struct {
	Role        user.Role `json:"role,omitempty"`
	Authorities []string  `json:"authorities,omitempty"`
	Type        Type      `json:"type"`
	jwt.RegisteredClaims
}
