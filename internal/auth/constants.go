package auth

import "time"

const (
	headerAuthorization = "Authorization"

	bearerScheme = "bearer"

	tokenTypeBearer = "Bearer"

	lastLoginUpdateTimeout = 500 * time.Millisecond
)

// Outcome labels recorded for every authentication decision.
const (
	OutcomeAnonymous        = "anonymous"
	OutcomeAuthenticated    = "authenticated"
	OutcomeInvalidToken     = "invalid_token"
	OutcomeExpiredToken     = "expired_token"
	OutcomeUnknownPrincipal = "unknown_principal"
	OutcomeError            = "error"
	OutcomeLoginSuccess     = "login_success"
	OutcomeLoginFailure     = "login_failure"
	OutcomeRefreshSuccess   = "refresh_success"
	OutcomeRefreshFailure   = "refresh_failure"
)

const (
	msgPrincipalNotFound    = "user not found"
	msgUserNotFound         = "user not found"
	msgUserNotAuthenticated = "user not authenticated"
	msgNotRefreshToken      = "token is not a refresh token"
	msgRefreshExpired       = "refresh token has expired"
	msgInsufficientRole     = "insufficient role"
	msgLoggedOut            = "logged out successfully"
	msgEmailTaken           = "email is already registered"
	msgCurrentPasswordWrong = "current password is incorrect"
	msgPasswordUnchanged    = "new password must differ from the current password"
	msgIssueTokensFailed    = "failed to issue tokens"
	msgLookupFailed         = "failed to look up user"
	msgRegisterFailed       = "failed to register user"
	msgUpdatePasswordFailed = "failed to update password"
)
