package ports

import "github.com/holycode/contracts-api/internal/core/domain"

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer signs and validates bearer tokens.
type TokenIssuer interface {
	Issue(subject string) (string, error)
	Verify(token string) (*domain.TokenClaims, error)
}
