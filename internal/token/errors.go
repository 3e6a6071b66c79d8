package token

import "errors"

var (
	ErrEmptyToken       = errors.New("token is empty")
	ErrMalformedToken   = errors.New("token is malformed")
	ErrBadSignature     = errors.New("token signature is invalid")
	ErrUnsupportedToken = errors.New("token is not supported")
)

const (
	errSecretEmpty       = "token: signing secret must not be empty"
	errTTLNotPositiveFmt = "token: %s ttl must be positive, got %s"
	errSubjectEmpty      = "token: subject must not be empty"
	errInvalidRoleFmt    = "token: invalid role %q"
	errSignFmt           = "token: sign: %w"
	errUnexpectedAlgFmt  = "%w: unexpected signing method %v"
	errMissingClaimFmt   = "%w: missing %s claim"
	errUnknownTypeFmt    = "%w: unknown token type %q"
	errForeignIssuerFmt  = "%w: issuer %q"
)
