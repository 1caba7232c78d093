// Package auth holds the session-token codec, signing-key policy, password
// hashing and the role-based authorization decision.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rnbmx/bmxshop/internal/common"
)

// Claims carries sub, iat and exp plus exp_ns, the exact expiry in Unix
// nanoseconds. exp is a whole-second NumericDate rounded up so the library
// check never fires before exp_ns does.
type Claims struct {
	jwt.RegisteredClaims
	ExpiresAtNanos int64 `json:"exp_ns,omitempty"`
}

// Codec issues and verifies HS512 session tokens. The key and ttl are fixed
// at construction and never change afterwards.
type Codec struct {
	key []byte
	ttl time.Duration
}

var errUnsupportedAlg = errors.New("unsupported signing algorithm")

// NewCodec validates the key length and ttl.
func NewCodec(key []byte, ttl time.Duration) (*Codec, error) {
	if len(key) < MinKeyBytes {
		return nil, common.ErrWeakSigningKey
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Codec{key: k, ttl: ttl}, nil
}

func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for subject with iat = now and exp = now + ttl.
func (c *Codec) Issue(subject string, now time.Time) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", common.ErrTokenEmptyClaims
	}

	exp := now.Add(c.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ceilSecond(exp)),
		},
		ExpiresAtNanos: exp.UnixNano(),
	})

	tokenString, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Verify returns the token subject when the signature matches and now is
// strictly before the expiry (exp_ns when present, exp otherwise). Every
// failure maps to one of the common.ErrToken* sentinels; Verify never panics
// on hostile input.
func (c *Codec) Verify(tokenString string, now time.Time) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", common.ErrTokenEmptyClaims
	}

	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)

	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS512 {
			return nil, fmt.Errorf("%w: %v", errUnsupportedAlg, t.Header["alg"])
		}
		return c.key, nil
	})
	if err != nil {
		return "", classify(err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return "", common.ErrTokenEmptyClaims
	}
	if claims.ExpiresAtNanos != 0 && !now.Before(time.Unix(0, claims.ExpiresAtNanos)) {
		return "", common.ErrTokenExpired
	}
	return claims.Subject, nil
}

func ceilSecond(t time.Time) time.Time {
	if r := t.Truncate(time.Second); !r.Equal(t) {
		return r.Add(time.Second)
	}
	return t
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return common.ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return common.ErrTokenUnsupported
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return common.ErrTokenInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return common.ErrTokenEmptyClaims
	default:
		return common.ErrTokenMalformed
	}
}
