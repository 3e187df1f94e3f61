package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is the single outcome for every verification failure:
// malformed input, bad signature, wrong algorithm and expiry alike.
var ErrInvalidToken = errors.New("invalid token")

// Purpose distinguishes what a token may be used for.
type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
)

// Claims is the decoded content of a verified token.
type Claims struct {
	Subject   uuid.UUID
	Purpose   Purpose
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	Purpose Purpose `json:"typ"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 bearer tokens with a process-wide secret.
// It is safe for concurrent use.
type Codec struct {
	secret  []byte
	nowFunc func() time.Time
	parser  *jwt.Parser
}

// Option customizes a Codec.
type Option func(*Codec)

// WithClock replaces the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// NewCodec constructs a Codec for the given secret.
func NewCodec(secret string, opts ...Option) *Codec {
	c := &Codec{
		secret:  []byte(secret),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return c.nowFunc() }),
	)
	return c
}

// Issue signs a token for subject that expires ttl from now.
func (c *Codec) Issue(subject uuid.UUID, purpose Purpose, ttl time.Duration) (string, time.Time, error) {
	now := c.nowFunc()
	// NumericDate keeps whole seconds; round up so the token never dies
	// before ttl has elapsed.
	deadline := now.Add(ttl)
	expiresAt := deadline.Truncate(time.Second)
	if expiresAt.Before(deadline) {
		expiresAt = expiresAt.Add(time.Second)
	}

	claims := jwtClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks the signature and expiry of tokenString and returns its
// claims. It never panics on malformed input.
func (c *Codec) Verify(tokenString string) (Claims, error) {
	if tokenString == "" {
		return Claims{}, ErrInvalidToken
	}

	var claims jwtClaims
	parsed, err := c.parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{
		Subject:   subject,
		Purpose:   claims.Purpose,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
