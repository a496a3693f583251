package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that cannot be accepted:
// malformed, expired, mis-signed or signed with the wrong method. Callers
// get no finer distinction than "invalid".
var ErrInvalidToken = errors.New("invalid token")

// DefaultExpiry applies when no expiry is configured.
const DefaultExpiry = 24 * time.Hour

// Service issues and verifies signed, time-limited bearer tokens. The user
// identifier travels as the sub claim and is the sole application claim.
type Service struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewService creates a token service signing with the given HMAC secret.
// A non-positive expiry falls back to DefaultExpiry.
func NewService(secret string, expiry time.Duration) *Service {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Service{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue signs a token carrying the user identifier.
func (s *Service) Issue(userID string) (string, error) {
	now := s.now()
	claims := &jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature and expiry and returns the bound user identifier.
func (s *Service) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
