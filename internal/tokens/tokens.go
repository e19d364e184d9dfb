package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is the fixed lifetime of every backend token. A fresh token is minted
// on every session read, so the credential observed by the gateway is at
// most this old.
const TTL = time.Hour

var ErrInvalidToken = errors.New("invalid backend token")

// Claims are the verified claims of a backend token.
type Claims struct {
	Subject   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Minter signs and verifies the short-lived HS256 tokens that authenticate
// BFF traffic to the internal gateway. The secret never leaves the server.
type Minter struct {
	secret   []byte
	issuer   string
	audience string
}

func NewMinter(secret, issuer, audience string) *Minter {
	return &Minter{secret: []byte(secret), issuer: issuer, audience: audience}
}

// Mint creates a signed token for the given canonical user id with
// exp = iat + 1h.
func (m *Minter) Mint(userID, email string, now time.Time) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("mint: empty user id")
	}
	claims := jwt.MapClaims{
		"sub":   userID,
		"iss":   m.issuer,
		"aud":   m.audience,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(TTL).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString(m.secret)
}

// Verify parses and validates a backend token, pinning the signing method
// to HS256 and requiring the configured issuer and audience.
func (m *Minter) Verify(raw string) (*Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	email, _ := mc["email"].(string)
	c := &Claims{Subject: sub, Email: email}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
