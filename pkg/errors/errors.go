package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors - Sentinel errors for use with errors.Is()
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource already exists")
	ErrInternalServer     = errors.New("internal server error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAuthentication     = errors.New("authentication error")
	ErrValidation         = errors.New("validation error")
	ErrFileUpload         = errors.New("file upload error")
)

// Stable error codes returned to API callers.
const (
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeAuthenticationError = "AUTHENTICATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "RESOURCE_NOT_FOUND"
	CodeBadRequest          = "BAD_REQUEST"
	CodeValidation          = "VALIDATION_ERROR"
	CodeConflict            = "CONFLICT"
	CodeFileUpload          = "FILE_UPLOAD_ERROR"
	CodeInternalServer      = "INTERNAL_SERVER_ERROR"
)

const (
	msgInvalidCredentials = "invalid email or password"
	msgTokenExpired       = "token has expired"
	msgInvalidToken       = "invalid token"
	msgAuthentication     = "an error occurred while authenticating the request"
	msgUnauthorized       = "authentication is required"
	msgForbidden          = "access denied"
	msgInternalServer     = "internal server error"
)

// Custom error type with context
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status the error is rendered with.
func (e *AppError) Status() int {
	switch e.Code {
	case CodeInvalidCredentials, CodeTokenExpired, CodeInvalidToken,
		CodeAuthenticationError, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeBadRequest, CodeValidation, CodeFileUpload:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// As extracts the *AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Constructors
func NotFound(msg string) *AppError {
	return &AppError{Code: CodeNotFound, Message: msg, Err: ErrNotFound}
}

func Unauthorized(msg string) *AppError {
	if msg == "" {
		msg = msgUnauthorized
	}
	return &AppError{Code: CodeUnauthorized, Message: msg, Err: ErrUnauthorized}
}

func Forbidden(msg string) *AppError {
	if msg == "" {
		msg = msgForbidden
	}
	return &AppError{Code: CodeForbidden, Message: msg, Err: ErrForbidden}
}

func BadRequest(msg string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: msg, Err: ErrBadRequest}
}

func Validation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Err: ErrValidation}
}

func Conflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, Err: ErrConflict}
}

func FileUpload(msg string, err error) *AppError {
	if err == nil {
		err = ErrFileUpload
	} else {
		err = fmt.Errorf("%w: %w", ErrFileUpload, err)
	}
	return &AppError{Code: CodeFileUpload, Message: msg, Err: err}
}

func InternalServer(msg string, err error) *AppError {
	if msg == "" {
		msg = msgInternalServer
	}
	return &AppError{Code: CodeInternalServer, Message: msg, Err: err}
}

// InvalidCredentials carries one fixed message: an unknown identifier and a
// wrong password must be indistinguishable to the caller.
func InvalidCredentials() *AppError {
	return &AppError{Code: CodeInvalidCredentials, Message: msgInvalidCredentials, Err: ErrInvalidCredentials}
}

func TokenExpired() *AppError {
	return &AppError{Code: CodeTokenExpired, Message: msgTokenExpired, Err: ErrTokenExpired}
}

// InvalidToken wraps the underlying reason so it can be logged server-side.
func InvalidToken(msg string, reason error) *AppError {
	if msg == "" {
		msg = msgInvalidToken
	}
	err := ErrInvalidToken
	if reason != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidToken, reason)
	}
	return &AppError{Code: CodeInvalidToken, Message: msg, Err: err}
}

func Authentication(cause error) *AppError {
	err := ErrAuthentication
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrAuthentication, cause)
	}
	return &AppError{Code: CodeAuthenticationError, Message: msgAuthentication, Err: err}
}

// Body is the JSON shape every error response is rendered with.
type Body struct {
	Error Detail `json:"error"`
}

type Detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Body() Body {
	return Body{Error: Detail{Code: e.Code, Message: e.Message}}
}
