package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"board-service/internal/audit"
	"board-service/internal/domain/user"
	"board-service/internal/token"
	apperrors "board-service/pkg/errors"
	"board-service/pkg/password"
	"board-service/pkg/validator"
)

// UserStore is the persistence the credential flows need.
type UserStore interface {
	UserLookup
	Create(ctx context.Context, input user.CreateUserInput) (*user.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// AuditRecorder persists audit events without blocking the caller.
type AuditRecorder interface {
	Record(ctx context.Context, event *audit.Event)
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, *audit.Event) {}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         user.Summary `json:"user"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Service implements the credential flows. Every error it returns is an
// *apperrors.AppError.
type Service struct {
	users     UserStore
	codec     *token.Codec
	validator *token.Validator
	hasher    *password.Hasher
	auditor   AuditRecorder
	recorder  OutcomeRecorder
	logger    *slog.Logger
}

func NewService(users UserStore, codec *token.Codec, hasher *password.Hasher, auditor AuditRecorder, recorder OutcomeRecorder, logger *slog.Logger) *Service {
	if auditor == nil {
		auditor = nopAuditor{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		users:     users,
		codec:     codec,
		validator: token.NewValidator(codec),
		hasher:    hasher,
		auditor:   auditor,
		recorder:  recorder,
		logger:    logger,
	}
}

// Login verifies the credentials and issues a token pair. An unknown email and a
// wrong password produce the same error.
func (s *Service) Login(ctx context.Context, identifier, plainPassword string) (*TokenPair, error) {
	email := validator.NormalizeEmail(identifier)

	u, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InternalServer(msgLookupFailed, err)
		}
		s.hasher.Burn(plainPassword)
		s.loginFailed(ctx, nil, email)
		return nil, apperrors.InvalidCredentials()
	}

	if !s.hasher.Matches(plainPassword, u.PasswordHash) {
		s.loginFailed(ctx, &u.ID, email)
		return nil, apperrors.InvalidCredentials()
	}

	now := s.codec.Now()
	s.touchLogin(ctx, u, plainPassword, now)
	u.LastLoginAt = &now

	pair, err := s.issuePair(u)
	if err != nil {
		return nil, apperrors.InternalServer(msgIssueTokensFailed, err)
	}

	s.recorder.AuthOutcome(OutcomeLoginSuccess)
	s.auditor.Record(ctx, &audit.Event{
		ActorID:      &u.ID,
		ResourceType: audit.ResourceTypeSession,
		Action:       audit.ActionLogin,
		Status:       audit.StatusSuccess,
	})
	return pair, nil
}

func (s *Service) loginFailed(ctx context.Context, userID *uuid.UUID, email string) {
	s.recorder.AuthOutcome(OutcomeLoginFailure)
	s.auditor.Record(ctx, &audit.Event{
		ActorID:      userID,
		ResourceType: audit.ResourceTypeSession,
		Action:       audit.ActionLogin,
		Status:       audit.StatusFailure,
		Metadata:     map[string]any{"email": email},
	})
}

// touchLogin records the login time and upgrades the password hash if the
// configured cost has increased. Both writes are best effort.
func (s *Service) touchLogin(ctx context.Context, u *user.User, plainPassword string, at time.Time) {
	updateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lastLoginUpdateTimeout)
	defer cancel()

	if err := s.users.UpdateLastLogin(updateCtx, u.ID, at); err != nil {
		s.logger.Warn("failed to update last_login_at",
			slog.String("user_id", u.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	stale, err := s.hasher.NeedsRehash(u.PasswordHash)
	if err != nil || !stale {
		return
	}
	hash, err := s.hasher.Hash(plainPassword)
	if err == nil {
		err = s.users.UpdatePasswordHash(updateCtx, u.ID, hash)
	}
	if err != nil {
		s.logger.Warn("failed to upgrade password hash",
			slog.String("user_id", u.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// Refresh exchanges a valid refresh token for a new pair. Access tokens are
// rejected. A vanished user yields RESOURCE_NOT_FOUND; every other failure is
// reported as INVALID_TOKEN.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	pair, userID, err := s.refresh(ctx, refreshToken)
	if err != nil {
		appErr, ok := apperrors.As(err)
		if !ok || (appErr.Code != apperrors.CodeInvalidToken && appErr.Code != apperrors.CodeNotFound) {
			appErr = apperrors.InvalidToken("", err)
		}
		s.recorder.AuthOutcome(OutcomeRefreshFailure)
		s.auditor.Record(ctx, &audit.Event{
			ActorID:      userID,
			ResourceType: audit.ResourceTypeSession,
			Action:       audit.ActionRefresh,
			Status:       audit.StatusFailure,
			ErrorMessage: appErr.Code,
		})
		return nil, appErr
	}

	s.recorder.AuthOutcome(OutcomeRefreshSuccess)
	s.auditor.Record(ctx, &audit.Event{
		ActorID:      userID,
		ResourceType: audit.ResourceTypeSession,
		Action:       audit.ActionRefresh,
		Status:       audit.StatusSuccess,
	})
	return pair, nil
}

func (s *Service) refresh(ctx context.Context, refreshToken string) (*TokenPair, *uuid.UUID, error) {
	result := s.validator.Validate(refreshToken)
	switch result.Outcome {
	case token.OutcomeOK:
	case token.OutcomeExpired:
		return nil, nil, apperrors.InvalidToken(msgRefreshExpired, nil)
	default:
		return nil, nil, apperrors.InvalidToken("", result.Err)
	}

	if result.Claims.Type != token.TypeRefresh {
		return nil, nil, apperrors.InvalidToken(msgNotRefreshToken, nil)
	}

	u, err := s.users.FindActiveByEmail(ctx, result.Claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.NotFound(msgUserNotFound)
		}
		return nil, nil, err
	}

	pair, err := s.issuePair(u)
	if err != nil {
		return nil, &u.ID, err
	}
	return pair, &u.ID, nil
}

func (s *Service) issuePair(u *user.User) (*TokenPair, error) {
	access, err := s.codec.IssueAccessToken(u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.IssueRefreshToken(u.Email)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
		User:         u.Summary(),
	}, nil
}

// Logout clears the principal from the returned context. Issued tokens stay valid
// until they expire; there is no server-side revocation. Calling it on a context
// without a principal is a no-op.
func (s *Service) Logout(ctx context.Context) (context.Context, string) {
	if p, ok := PrincipalFromContext(ctx); ok {
		s.auditor.Record(ctx, &audit.Event{
			ActorID:      &p.ID,
			ResourceType: audit.ResourceTypeSession,
			Action:       audit.ActionLogout,
			Status:       audit.StatusSuccess,
		})
	}
	return WithoutPrincipal(ctx), msgLoggedOut
}

// Register creates a USER account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.Summary, error) {
	email := validator.NormalizeEmail(in.Email)
	if err := validator.Name(in.Name); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if err := validator.Email(email); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if err := validator.Password(in.Password); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.InternalServer(msgRegisterFailed, err)
	}

	u, err := s.users.Create(ctx, user.CreateUserInput{
		Email:        email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         user.RoleUser,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict(msgEmailTaken)
		}
		return nil, apperrors.InternalServer(msgRegisterFailed, err)
	}

	s.auditor.Record(ctx, &audit.Event{
		ActorID:      &u.ID,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   &u.ID,
		Action:       audit.ActionRegister,
		Status:       audit.StatusSuccess,
	})

	summary := u.Summary()
	return &summary, nil
}

// CurrentUser returns the live record of the principal bound to ctx.
func (s *Service) CurrentUser(ctx context.Context) (*user.Summary, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized(msgUserNotAuthenticated)
	}

	u, err := s.users.FindActiveByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound(msgUserNotFound)
		}
		return nil, apperrors.InternalServer(msgLookupFailed, err)
	}

	summary := u.Summary()
	return &summary, nil
}

// ChangePassword replaces the principal's password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return apperrors.Unauthorized(msgUserNotAuthenticated)
	}

	u, err := s.users.FindActiveByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound(msgUserNotFound)
		}
		return apperrors.InternalServer(msgLookupFailed, err)
	}

	if !s.hasher.Matches(currentPassword, u.PasswordHash) {
		return apperrors.BadRequest(msgCurrentPasswordWrong)
	}
	if err := validator.Password(newPassword); err != nil {
		return apperrors.Validation(err.Error())
	}
	if currentPassword == newPassword {
		return apperrors.Validation(msgPasswordUnchanged)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.InternalServer(msgUpdatePasswordFailed, err)
	}
	if err := s.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		return apperrors.InternalServer(msgUpdatePasswordFailed, err)
	}

	s.auditor.Record(ctx, &audit.Event{
		ActorID:      &u.ID,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   &u.ID,
		Action:       audit.ActionUpdate,
		Status:       audit.StatusSuccess,
		Metadata:     map[string]any{"field": "password"},
	})
	return nil
}
