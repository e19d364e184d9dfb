package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret-32-bytes-xxxxxx"

func TestMintClaimsAndLifetime(t *testing.T) {
	m := NewMinter(testSecret, "briefly-bff", "briefly-services")
	now := time.Now()

	raw, err := m.Mint("user-abc", "a@b.c", now)
	require.NoError(t, err)

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)

	assert.Equal(t, "user-abc", claims["sub"])
	assert.Equal(t, "a@b.c", claims["email"])
	assert.Equal(t, "briefly-bff", claims["iss"])
	assert.Equal(t, "briefly-services", claims["aud"])

	iat := int64(claims["iat"].(float64))
	exp := int64(claims["exp"].(float64))
	assert.Equal(t, int64(3600), exp-iat)
}

func TestVerifyRoundTrip(t *testing.T) {
	m := NewMinter(testSecret, "briefly-bff", "briefly-services")
	now := time.Now()

	raw, err := m.Mint("user-abc", "a@b.c", now)
	require.NoError(t, err)

	c, err := m.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-abc", c.Subject)
	assert.Equal(t, "a@b.c", c.Email)
	assert.Equal(t, time.Hour, c.ExpiresAt.Sub(c.IssuedAt))
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewMinter(testSecret, "briefly-bff", "briefly-services")
	raw, err := m.Mint("user-abc", "a@b.c", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m := NewMinter(testSecret, "briefly-bff", "briefly-services")
	other := NewMinter("another-secret-32-bytes-yyyyyyyy", "briefly-bff", "briefly-services")

	raw, err := other.Mint("user-abc", "a@b.c", time.Now())
	require.NoError(t, err)

	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	m := NewMinter(testSecret, "briefly-bff", "briefly-services")
	other := NewMinter(testSecret, "someone-else", "briefly-services")

	raw, err := other.Mint("user-abc", "a@b.c", time.Now())
	require.NoError(t, err)

	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	m := NewMinter(testSecret, "briefly-bff", "briefly-services")
	claims := jwt.MapClaims{"sub": "user-abc", "iss": "briefly-bff", "aud": "briefly-services", "exp": time.Now().Add(time.Hour).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMintRequiresUserID(t *testing.T) {
	m := NewMinter(testSecret, "briefly-bff", "briefly-services")
	_, err := m.Mint("", "a@b.c", time.Now())
	assert.Error(t, err)
}
