package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of issued tokens when none is configured.
const DefaultTokenTTL = 240 * time.Hour

// ErrSigningDisabled is returned when no signing key is configured.
var ErrSigningDisabled = errors.New("token signing is not configured")

// TokenIssuer signs HS512 tokens that JWTMiddleware accepts when it is
// configured with the same key, issuer and audience.
type TokenIssuer struct {
	Key      []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	Now      func() time.Time
}

// Issue returns a signed token for subject and its expiry.
func (ti *TokenIssuer) Issue(subject string, roles []string) (string, time.Time, error) {
	if ti == nil || len(ti.Key) == 0 {
		return "", time.Time{}, ErrSigningDisabled
	}
	now := time.Now
	if ti.Now != nil {
		now = ti.Now
	}
	ttl := ti.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	issued := now()
	expires := issued.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    ti.Issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Roles: roles,
	}
	if ti.Audience != "" {
		claims.Audience = jwt.ClaimStrings{ti.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(ti.Key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}
