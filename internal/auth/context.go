package auth

import (
	"context"

	"github.com/labstack/echo/v4"

	apperrors "board-service/pkg/errors"
)

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &principal)
}

// WithoutPrincipal returns a context in which no principal is visible, even if ctx
// carries one.
func WithoutPrincipal(ctx context.Context) context.Context {
	if _, ok := PrincipalFromContext(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, principalContextKey{}, (*Principal)(nil))
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	v, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || v == nil {
		return Principal{}, false
	}
	return *v, true
}

// GetPrincipal returns the principal bound to the request, or an UNAUTHORIZED error.
func GetPrincipal(c echo.Context) (Principal, error) {
	p, ok := PrincipalFromContext(c.Request().Context())
	if !ok {
		return Principal{}, apperrors.Unauthorized(msgUserNotAuthenticated)
	}
	return p, nil
}
