package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"board-service/internal/domain/user"
	"board-service/internal/rbac"
	apperrors "board-service/pkg/errors"
)

// Principal is the request-scoped view of an authenticated user.
type Principal struct {
	ID          uuid.UUID
	Email       string
	Name        string
	Role        user.Role
	Authorities []string
}

func (p Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// Subject adapts the principal for RBAC checks.
func (p Principal) Subject() *rbac.Subject {
	return &rbac.Subject{Role: rbac.Role(p.Role)}
}

// UserLookup finds live users. Implementations must exclude soft-deleted rows and
// return an error wrapping apperrors.ErrNotFound on a miss.
type UserLookup interface {
	FindActiveByEmail(ctx context.Context, email string) (*user.User, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Resolver turns a token subject into a Principal.
type Resolver struct {
	users UserLookup
}

func NewResolver(users UserLookup) *Resolver {
	return &Resolver{users: users}
}

func (r *Resolver) Resolve(ctx context.Context, subject string) (*Principal, error) {
	u, err := r.users.FindActiveByEmail(ctx, subject)
	return r.build(u, err)
}

func (r *Resolver) ResolveByID(ctx context.Context, id uuid.UUID) (*Principal, error) {
	u, err := r.users.FindActiveByID(ctx, id)
	return r.build(u, err)
}

func (r *Resolver) build(u *user.User, err error) (*Principal, error) {
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound(msgPrincipalNotFound)
		}
		return nil, fmt.Errorf("resolve principal: %w", err)
	}
	if u == nil || u.IsDeleted() {
		return nil, apperrors.NotFound(msgPrincipalNotFound)
	}
	return NewPrincipal(u), nil
}

// NewPrincipal projects a user into a Principal. The authority set is derived from
// the role.
func NewPrincipal(u *user.User) *Principal {
	return &Principal{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Authorities: []string{u.Role.Authority()},
	}
}
