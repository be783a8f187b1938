package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity carried inside an access token.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time

	// Verified is true only when the signature and expiry were checked
	// against the configured secret.
	Verified bool
}

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (c *tokenClaims) toClaims(verified bool) Claims {
	out := Claims{
		Subject:  c.Subject,
		Email:    c.Email,
		Verified: verified,
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

// Verifier checks HS256 access tokens against a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier, or nil when secret is empty.
func NewVerifier(secret string) *Verifier {
	if secret == "" {
		return nil
	}
	return &Verifier{secret: []byte(secret)}
}

// Verify parses token and checks its signature and expiry.
func (v *Verifier) Verify(token string) (Claims, error) {
	var tc tokenClaims
	_, err := jwt.ParseWithClaims(token, &tc, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("access token expired: %w", err)
		}
		return Claims{}, fmt.Errorf("verifying access token: %w", err)
	}
	return tc.toClaims(true), nil
}

// ParseUnverified decodes the token payload without checking anything.
// The result is for display only and must not be used as identity.
func ParseUnverified(token string) (Claims, error) {
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return Claims{}, fmt.Errorf("decoding access token: %w", err)
	}
	return tc.toClaims(false), nil
}
