// Package token issues and verifies the service's bearer credentials.
//
// Tokens are self-contained HS256 JWTs carrying subject, issued-at,
// expiry, a unique ID, and a type claim separating short-lived access
// tokens from long-lived refresh tokens so one can never stand in for
// the other. Access tokens are verified statelessly; refresh tokens are
// additionally cross-checked against the user's stored fingerprint by
// the refresh handler, which is what makes revocation possible.
//
// Verification allows 5 seconds of issued-at clock skew.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "workhive"

// Token types carried in the "typ" claim.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Default lifetimes. Access is short for exposure control; refresh is
// long for persistent sessions.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// issuedAtSkew is how far in the future an iat claim may sit before the
// token is rejected, to tolerate small clock differences.
const issuedAtSkew = 5 * time.Second

var (
	// ErrNoSecret means the signing key is not configured. This is fatal
	// at startup; the service must not run with unsigned tokens.
	ErrNoSecret = errors.New("token signing secret is not configured")

	// ErrExpired means the token was well-formed and correctly signed
	// but past its expiry.
	ErrExpired = errors.New("token expired")

	// ErrMalformed covers bad signatures, unparseable tokens, and claim
	// validation failures other than expiry.
	ErrMalformed = errors.New("malformed token")

	// ErrWrongType means an access token was presented where a refresh
	// token was required, or vice versa.
	ErrWrongType = errors.New("wrong token type")
)

// Claims are the verified contents of a token.
type Claims struct {
	TokenType Type `json:"typ"`
	jwt.RegisteredClaims
}

// Service signs and verifies tokens with a fixed secret and TTL policy,
// initialized once at startup and never mutated.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New creates a token Service. Zero TTLs fall back to the defaults.
// An empty secret returns ErrNoSecret.
func New(secret []byte, accessTTL, refreshTTL time.Duration) (*Service, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Service{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// IssueAccess signs a short-lived access token for the given subject.
func (s *Service) IssueAccess(subject string) (string, error) {
	return s.issue(subject, TypeAccess, s.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for the given subject.
func (s *Service) IssueRefresh(subject string) (string, error) {
	return s.issue(subject, TypeRefresh, s.refreshTTL)
}

func (s *Service) issue(subject string, typ Type, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("subject is required")
	}

	now := time.Now().UTC()
	claims := Claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify checks signature, expiry, issuer, and type, returning the
// claims on success. Failures are ErrExpired, ErrWrongType, or
// ErrMalformed.
func (s *Service) Verify(tokenString string, want Type) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMalformed
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrMalformed
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// Expiry is distinguishable so clients know to refresh
			// rather than re-authenticate. Type is still checked first:
			// an expired refresh token presented as an access token is
			// a type error, not a refresh prompt.
			if claims := expiredClaims(tokenString); claims != nil && claims.TokenType != want {
				return nil, ErrWrongType
			}
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if err := validate(claims); err != nil {
		return nil, ErrMalformed
	}
	if claims.TokenType != want {
		return nil, ErrWrongType
	}
	return claims, nil
}

func validate(claims *Claims) error {
	if claims.Issuer != issuer {
		return errors.New("unexpected issuer")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := time.Now().UTC()
	if claims.IssuedAt.Time.After(now.Add(issuedAtSkew)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}

// expiredClaims extracts claims from an expired but otherwise valid
// token so type mismatches can be reported accurately. Signature has
// already been checked by the failed parse, so this re-parse only needs
// the claim payload.
func expiredClaims(tokenString string) *Claims {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	return claims
}
