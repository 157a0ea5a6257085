package ports

import (
	"context"

	"github.com/holycode/contracts-api/internal/core/domain"
)

// UserRepository defines the credential store.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail looks the user up by its normalised (lowercase) email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
