package token

import (
	"errors"
	"fmt"
	"time"

	domain "authgate/backend/internal/domain/auth"
	usecase "authgate/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// DefaultLifetime is the token lifetime used when configuration does not set one.
const DefaultLifetime = 24 * time.Hour

// JWTManager issues and validates HS256 JWT tokens.
type JWTManager struct {
	secret   []byte
	lifetime time.Duration
	issuer   string
	now      func() time.Time
}

// NewJWTManager constructs a manager with the provided secret and lifetime.
func NewJWTManager(secret string, lifetime time.Duration, issuer string) *JWTManager {
	return &JWTManager{
		secret:   []byte(secret),
		lifetime: lifetime,
		issuer:   issuer,
		now:      time.Now,
	}
}

// WithClock returns a copy of m reading time from now.
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	c := *m
	c.now = now
	return &c
}

// Ensure JWTManager implements the TokenManager interface.
var _ usecase.TokenManager = (*JWTManager)(nil)

// Claims represents token claims.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

var errNoSecret = errors.New("jwt signing secret is not configured")

// Issue creates a signed JWT for the user.
func (m *JWTManager) Issue(userID, email string) (string, error) {
	if len(m.secret) == 0 {
		return "", domain.Internal(oops.Code("TOKEN_SECRET_MISSING").Wrap(errNoSecret))
	}

	now := m.now().UTC()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", domain.Internal(oops.Code("TOKEN_SIGN_FAILED").With("user_id", userID).Wrap(err))
	}
	return signed, nil
}

// Verify checks signature, method, issuer and expiry and returns the payload.
func (m *JWTManager) Verify(tokenString string) (domain.TokenPayload, error) {
	if len(m.secret) == 0 {
		return domain.TokenPayload{}, domain.Internal(oops.Code("TOKEN_SECRET_MISSING").Wrap(errNoSecret))
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.TokenPayload{}, domain.ErrTokenExpired.WithCause(err)
		}
		return domain.TokenPayload{}, domain.ErrTokenInvalid.WithCause(err)
	}
	if !token.Valid || claims.UserID == "" {
		return domain.TokenPayload{}, domain.ErrTokenInvalid.WithCause(errors.New("invalid token claims"))
	}

	payload := domain.TokenPayload{
		UserID: claims.UserID,
		Email:  claims.Email,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}
	return payload, nil
}
