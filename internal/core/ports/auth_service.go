package ports

import (
	"context"

	"github.com/holycode/contracts-api/internal/core/domain"
)

// AuthResult is returned by signup and signin.
type AuthResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Signup(ctx context.Context, email, password string) (*AuthResult, error)
	Signin(ctx context.Context, email, password string) (*AuthResult, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}
