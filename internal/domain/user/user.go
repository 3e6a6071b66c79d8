package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is a user's privilege tier. Roles are totally ordered by Level.
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

const authorityPrefix = "ROLE_"

// Level returns the role's rank, or 0 for an unknown role.
func (r Role) Level() int {
	switch r {
	case RoleUser:
		return 1
	case RoleManager:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

func (r Role) Valid() bool {
	return r.Level() > 0
}

// AtLeast reports whether r ranks at or above min. Unknown roles never qualify.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && min.Valid() && r.Level() >= min.Level()
}

// Authority is the granted-authority name for the role, e.g. ROLE_ADMIN.
func (r Role) Authority() string {
	return authorityPrefix + string(r)
}

// ParseRole accepts role names case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	LastLoginAt  *time.Time
	DeletedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// Summary is the public projection of a User. It never carries the password hash.
type Summary struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        Role       `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (u *User) Summary() Summary {
	return Summary{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

type CreateUserInput struct {
	Email        string
	Name         string
	PasswordHash string
	Role         Role
}

type ListFilter struct {
	Role    *Role
	Keyword string
	Limit   int
	Offset  int
}
