package auth

import (
	"strings"

	domain "authgate/backend/internal/domain/auth"
)

// TokenManager abstracts token issuance and verification.
type TokenManager interface {
	Issue(userID, email string) (string, error)
	// Verify fails with a *domain.Error of kind TokenExpired, TokenInvalid or
	// InternalFailure.
	Verify(token string) (domain.TokenPayload, error)
}

const bearerScheme = "Bearer"

// ExtractBearerToken returns the token from an Authorization header value of
// the exact form "Bearer <token>". Any other shape reports false; a missing
// token is not an error.
func ExtractBearerToken(header string) (string, bool) {
	fields := strings.Split(header, " ")
	if len(fields) != 2 || fields[0] != bearerScheme || fields[1] == "" {
		return "", false
	}
	return fields[1], true
}
