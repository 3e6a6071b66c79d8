package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"board-service/internal/domain/user"
)

const DefaultIssuer = "board-service"

// Codec issues and decodes HS256 tokens. It holds no mutable state after
// construction and is safe for concurrent use.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

type Option func(*Codec)

// WithClock replaces the wall clock used for iat, exp and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

func NewCodec(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, errors.New(errSecretEmpty)
	}
	if accessTTL <= 0 {
		return nil, fmt.Errorf(errTTLNotPositiveFmt, TypeAccess, accessTTL)
	}
	if refreshTTL <= 0 {
		return nil, fmt.Errorf(errTTLNotPositiveFmt, TypeRefresh, refreshTTL)
	}

	c := &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     DefaultIssuer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// Now returns the codec's notion of the current time.
func (c *Codec) Now() time.Time {
	return c.now()
}

func (c *Codec) IssueAccessToken(subject string, role user.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf(errInvalidRoleFmt, role)
	}
	claims := c.newClaims(subject, TypeAccess, c.accessTTL)
	claims.Role = role
	claims.Authorities = []string{role.Authority()}
	return c.sign(claims)
}

func (c *Codec) IssueRefreshToken(subject string) (string, error) {
	return c.sign(c.newClaims(subject, TypeRefresh, c.refreshTTL))
}

func (c *Codec) newClaims(subject string, typ Type, ttl time.Duration) *Claims {
	now := c.now()
	return &Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (c *Codec) sign(claims *Claims) (string, error) {
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New(errSubjectEmpty)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf(errSignFmt, err)
	}
	return signed, nil
}

// Decode verifies the signature and structure of tokenString and returns its claims.
// Expiry is not checked here; that is the Validator's job. Errors wrap one of
// ErrEmptyToken, ErrMalformedToken, ErrBadSignature or ErrUnsupportedToken.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrEmptyToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, classify(err)
	}

	if err := c.checkClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf(errUnexpectedAlgFmt, ErrUnsupportedToken, t.Header["alg"])
	}
	return c.secret, nil
}

func (c *Codec) checkClaims(claims *Claims) error {
	if claims.Subject == "" {
		return fmt.Errorf(errMissingClaimFmt, ErrUnsupportedToken, "sub")
	}
	if claims.ExpiresAt == nil {
		return fmt.Errorf(errMissingClaimFmt, ErrUnsupportedToken, "exp")
	}
	if !claims.Type.Valid() {
		return fmt.Errorf(errUnknownTypeFmt, ErrUnsupportedToken, claims.Type)
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return fmt.Errorf(errForeignIssuerFmt, ErrUnsupportedToken, claims.Issuer)
	}
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnsupportedToken):
		return err
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrUnsupportedToken, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}
