package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	tokenString, err := svc.Issue("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	subject, err := svc.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	issued := time.Now()
	svc.now = func() time.Time { return issued }

	tokenString, err := svc.Issue("user-123")
	require.NoError(t, err)

	// Advance past expiry.
	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }

	_, err = svc.Verify(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTampering(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	tokenString, err := svc.Issue("user-123")
	require.NoError(t, err)

	_, err = svc.Verify(tokenString + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", time.Hour)
	verifier := NewService("secret-b", time.Hour)

	tokenString, err := issuer.Issue("user-123")
	require.NoError(t, err)

	_, err = verifier.Verify(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSigningMethod(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	// alg "none" must never be accepted.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &jwt.RegisteredClaims{
		Subject:   "user-123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	signed := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	tokenString, err := signed.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Verify(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDefaultExpiryFallback(t *testing.T) {
	svc := NewService("test-secret", 0)
	assert.Equal(t, DefaultExpiry, svc.expiry)
}
