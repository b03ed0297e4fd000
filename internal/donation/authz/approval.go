// Package authz verifies that a party approved the current registry call. The
// host attaches signed approval tokens to the call context; an identity is
// authorized when one of them is valid and names it as subject.
package authz

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bloodledger/internal/donation/models"
	"bloodledger/internal/donation/ports"
	dErrors "bloodledger/pkg/domain-errors"
	"bloodledger/pkg/requestcontext"
)

// Claims is the approval token payload. Subject is the approving identity.
type Claims struct {
	jwt.RegisteredClaims
}

// Signer issues approval tokens. In production the signing happens in the
// party's wallet; the signer exists for local hosts and tests.
type Signer struct {
	key      []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewSigner(key, issuer, audience string) *Signer {
	return &Signer{key: []byte(key), issuer: issuer, audience: audience, now: time.Now}
}

// Sign returns a token approving calls by identity for ttl.
func (s *Signer) Sign(identity models.Identity, ttl time.Duration) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign approval")
	}
	return signed, nil
}

// Authorizer checks approval tokens carried on the call context.
type Authorizer struct {
	key    []byte
	parser *jwt.Parser
}

var _ ports.Authorizer = (*Authorizer)(nil)

type Option func(*authorizerOptions)

type authorizerOptions struct {
	now func() time.Time
}

// WithNow overrides the clock used for expiry checks, for tests.
func WithNow(now func() time.Time) Option {
	return func(o *authorizerOptions) {
		o.now = now
	}
}

func NewAuthorizer(key, issuer, audience string, opts ...Option) *Authorizer {
	o := authorizerOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Authorizer{
		key: []byte(key),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(o.now),
		),
	}
}

// RequireAuth succeeds when any attached approval is valid for identity.
func (a *Authorizer) RequireAuth(ctx context.Context, identity models.Identity) error {
	if identity.IsZero() {
		return dErrors.Wrap(models.ErrInvalidIdentity, dErrors.CodeUnauthorized, "identity is required")
	}
	var lastErr error
	for _, raw := range requestcontext.Approvals(ctx) {
		claims, err := a.parse(raw)
		if err != nil {
			lastErr = err
			continue
		}
		if claims.Subject == identity.String() {
			return nil
		}
	}
	if errors.Is(lastErr, jwt.ErrTokenExpired) {
		return dErrors.Wrap(models.ErrUnauthorized, dErrors.CodeUnauthorized, "approval has expired")
	}
	return dErrors.Wrap(models.ErrUnauthorized, dErrors.CodeUnauthorized, "missing approval for "+identity.String())
}

func (a *Authorizer) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	}); err != nil {
		return nil, err
	}
	return claims, nil
}
