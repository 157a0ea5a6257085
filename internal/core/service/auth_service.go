package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/holycode/contracts-api/internal/core/domain"
	"github.com/holycode/contracts-api/internal/core/ports"
)

// AuthOptions tunes signin behaviour.
type AuthOptions struct {
	// ConcealUnknownEmail makes signin with an unknown email fail with the same
	// credentials error as a wrong password, after a comparable hashing delay.
	ConcealUnknownEmail bool
}

// AuthService implements signup, signin and password change.
type AuthService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	validate *validator.Validate
	log      zerolog.Logger

	concealUnknownEmail bool
	dummyHash           string
}

// NewAuthService fails only when ConcealUnknownEmail is set and the dummy
// hash cannot be computed.
func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	log zerolog.Logger,
	opts AuthOptions,
) (*AuthService, error) {
	s := &AuthService{
		users:               users,
		hasher:              hasher,
		tokens:              tokens,
		validate:            validator.New(),
		log:                 log,
		concealUnknownEmail: opts.ConcealUnknownEmail,
	}
	if s.concealUnknownEmail {
		// Compared against on unknown emails so both signin failures cost one bcrypt run.
		dummy, err := hasher.Hash("unknown-account-placeholder")
		if err != nil {
			return nil, fmt.Errorf("prepare signin dummy hash: %w", err)
		}
		s.dummyHash = dummy
	}
	return s, nil
}

// Signup registers a new account with the default User role and issues a token.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrMissingParameters
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return nil, domain.ErrInvalidEmail
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("email", created.Email).Msg("user signed up")
	return &ports.AuthResult{Token: token, User: created}, nil
}

// Signin verifies credentials and issues a fresh token.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrMissingParameters
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) && s.concealUnknownEmail {
			s.hasher.Verify(password, s.dummyHash)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Debug().Str("user_id", user.ID).Msg("signin rejected: wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: token, User: user}, nil
}

// ChangePassword replaces the user's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return domain.ErrMissingParameters
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password changed")
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
