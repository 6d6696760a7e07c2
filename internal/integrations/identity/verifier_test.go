package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

func TestVerify_RoundTrip(t *testing.T) {
	v := NewVerifier("secret", "auth.example.com")
	p := domain.Principal{ID: uuid.New(), Role: domain.RoleTeacher}

	token, err := v.Sign(p, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestVerify_Expired(t *testing.T) {
	v := NewVerifier("secret", "")
	token, err := v.Sign(domain.Principal{ID: uuid.New(), Role: domain.RoleStudent}, -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewVerifier("other", "").Sign(domain.Principal{ID: uuid.New(), Role: domain.RoleStudent}, time.Hour)
	require.NoError(t, err)

	_, err = NewVerifier("secret", "").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongIssuer(t *testing.T) {
	token, err := NewVerifier("secret", "someone-else").Sign(domain.Principal{ID: uuid.New(), Role: domain.RoleStudent}, time.Hour)
	require.NoError(t, err)

	_, err = NewVerifier("secret", "auth.example.com").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_BadClaims(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "42",
		"role": "student",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewVerifier("secret", "").Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidClaims)

	token = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err = token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewVerifier("secret", "").Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
