package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"board-service/internal/domain/user"
	"board-service/internal/rbac"
	"board-service/internal/token"
	apperrors "board-service/pkg/errors"
)

// OutcomeRecorder receives one label per authentication decision.
type OutcomeRecorder interface {
	AuthOutcome(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) AuthOutcome(string) {}

// Middleware authenticates bearer tokens and enforces role requirements.
type Middleware struct {
	validator *token.Validator
	resolver  *Resolver
	checker   *rbac.Checker
	recorder  OutcomeRecorder
	logger    *slog.Logger
}

func NewMiddleware(validator *token.Validator, resolver *Resolver, checker *rbac.Checker, recorder OutcomeRecorder, logger *slog.Logger) *Middleware {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Middleware{
		validator: validator,
		resolver:  resolver,
		checker:   checker,
		recorder:  recorder,
		logger:    logger,
	}
}

// Authenticate binds the principal named by a valid bearer token to the request
// context. Requests without the bearer scheme pass through anonymously; requests with
// a bad token are rejected with 401. The binding is undone when the downstream
// chain returns.
func (m *Middleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if _, ok := PrincipalFromContext(req.Context()); ok {
				return next(c)
			}

			raw, ok := extractBearerToken(c)
			if !ok {
				m.recorder.AuthOutcome(OutcomeAnonymous)
				return next(c)
			}

			principal, err := m.authenticate(req.Context(), raw)
			if err != nil {
				return m.reject(c, err)
			}
			m.recorder.AuthOutcome(OutcomeAuthenticated)

			c.SetRequest(req.WithContext(ContextWithPrincipal(req.Context(), *principal)))
			defer c.SetRequest(req)

			return next(c)
		}
	}
}

// authenticate runs validation and resolution. Any panic is converted to an
// AUTHENTICATION_ERROR so the request fails closed.
func (m *Middleware) authenticate(ctx context.Context, raw string) (principal *Principal, err error) {
	defer func() {
		if r := recover(); r != nil {
			principal = nil
			err = apperrors.Authentication(fmt.Errorf("panic: %v", r))
		}
	}()

	result := m.validator.Validate(raw)
	switch result.Outcome {
	case token.OutcomeOK:
	case token.OutcomeExpired:
		return nil, apperrors.TokenExpired()
	default:
		return nil, apperrors.InvalidToken("", result.Err)
	}

	principal, err = m.resolver.Resolve(ctx, result.Claims.Subject)
	if err != nil {
		return nil, apperrors.Authentication(err)
	}
	return principal, nil
}

func (m *Middleware) reject(c echo.Context, err error) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Authentication(err)
	}

	outcome := OutcomeError
	switch {
	case errors.Is(appErr, apperrors.ErrInvalidToken):
		outcome = OutcomeInvalidToken
	case errors.Is(appErr, apperrors.ErrTokenExpired):
		outcome = OutcomeExpiredToken
	case errors.Is(appErr, apperrors.ErrNotFound):
		outcome = OutcomeUnknownPrincipal
	}
	m.recorder.AuthOutcome(outcome)

	m.logger.Warn("authentication rejected",
		slog.String("code", appErr.Code),
		slog.String("outcome", outcome),
		slog.String("path", c.Request().URL.Path),
		slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		slog.String("error", appErr.Error()),
	)

	return respondError(c, appErr)
}

// RequireAuthenticated rejects requests with no bound principal.
func (m *Middleware) RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := PrincipalFromContext(c.Request().Context()); !ok {
				return respondError(c, apperrors.Unauthorized(msgUserNotAuthenticated))
			}
			return next(c)
		}
	}
}

// RequireRole rejects requests whose principal ranks below minRole.
func (m *Middleware) RequireRole(minRole user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return respondError(c, apperrors.Unauthorized(msgUserNotAuthenticated))
			}

			if err := m.checker.RequireRole(principal.Subject(), rbac.Role(minRole)); err != nil {
				return respondError(c, apperrors.Forbidden(msgInsufficientRole))
			}

			return next(c)
		}
	}
}

// extractBearerToken reports whether the request uses the bearer scheme. Once the
// scheme matches, whatever follows it is the token, empty or not, and must be
// validated.
func extractBearerToken(c echo.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.Request().Header.Get(headerAuthorization))
	if authHeader == "" {
		return "", false
	}

	scheme, rest, _ := strings.Cut(authHeader, " ")
	if !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}

	return strings.TrimSpace(rest), true
}

func respondError(c echo.Context, appErr *apperrors.AppError) error {
	return c.JSON(appErr.Status(), appErr.Body())
}
