// Package jwtmw issues and verifies bearer tokens and resolves the caller of protected routes.
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dynamicpro_backend/internal/feature/auth/domain/entity"
)

var (
	// ErrEmptySecret is returned by NewGenerator when no signing secret is configured.
	ErrEmptySecret = errors.New("jwt signing secret must not be empty")

	// ErrInvalidToken matches every verification failure below.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when exp is in the past.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
	// ErrTokenMalformed is returned when the token cannot be decoded or lacks required claims.
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	// ErrTokenSignature is returned when the signature or algorithm does not match.
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
)

// Claims is the signed payload of a bearer token.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Generator signs and verifies HS256 tokens with a process-wide secret.
type Generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator creates a new JWT generator with the provided secret and expiration duration.
func NewGenerator(secret string, expiration time.Duration) (*Generator, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}, nil
}

// GenerateToken creates a signed token carrying {id, email, role, iat, exp}.
func (g *Generator) GenerateToken(userID, email string, role entity.Role) (string, error) {
	if userID == "" {
		return "", errors.New("failed to sign token: empty user id")
	}

	now := g.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and expiry of tokenStr and returns the identity it carries.
// Failures are one of ErrTokenExpired, ErrTokenMalformed or ErrTokenSignature.
func (g *Generator) Verify(tokenStr string) (entity.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// Check signing algorithm (only HMAC allowed)
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return entity.Identity{}, classify(err)
	}
	if claims.UserID == "" {
		return entity.Identity{}, ErrTokenMalformed
	}

	id := entity.Identity{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  entity.Role(claims.Role),
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	return id, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignature
	default:
		return ErrTokenMalformed
	}
}

// Reason returns a short label for a verification error, used in logs and metrics.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenSignature):
		return "signature_mismatch"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	default:
		return "unknown"
	}
}
