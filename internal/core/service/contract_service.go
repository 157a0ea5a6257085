package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/holycode/contracts-api/internal/core/domain"
	"github.com/holycode/contracts-api/internal/core/ports"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

type ContractService struct {
	repo   ports.ContractRepository
	idem   ports.IdempotencyStore
	logger zerolog.Logger
}

// NewContractService returns a ContractService. idem may be nil, in which case
// Idempotency-Key headers are ignored.
func NewContractService(repo ports.ContractRepository, idem ports.IdempotencyStore, logger zerolog.Logger) *ContractService {
	return &ContractService{repo: repo, idem: idem, logger: logger}
}

// Create stores a new active contract owned by input.OwnerID. When an
// idempotency key was already used by the same owner, the earlier contract is
// returned without side effects. A second request arriving while the first is
// still being processed gets domain.ErrRequestInProgress.
func (s *ContractService) Create(ctx context.Context, input ports.CreateContractInput) (*ports.CreateContractResult, error) {
	title := strings.TrimSpace(input.Title)
	companyName := strings.TrimSpace(input.CompanyName)
	if input.OwnerID == "" || title == "" || companyName == "" || input.YearlyPrice == 0 {
		return nil, domain.ErrMissingParameters
	}
	if input.YearlyPrice < 0 {
		return nil, domain.ErrInvalidValue
	}

	reserved := false
	if key := input.IdempotencyKey; key != "" && s.idem != nil {
		ok, id, err := s.idem.Reserve(ctx, input.OwnerID, key)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency reserve failed, creating anyway")
		case ok:
			reserved = true
		case id == "":
			return nil, domain.ErrRequestInProgress
		default:
			if existing := s.replay(ctx, input.OwnerID, key, id); existing != nil {
				return &ports.CreateContractResult{Contract: existing, Replayed: true}, nil
			}
		}
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Contract{
		Title:       title,
		CompanyName: companyName,
		YearlyPrice: input.YearlyPrice,
		Content:     input.Content,
		CreatedBy:   input.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", input.OwnerID).Msg("failed to create contract")
		if reserved {
			if relErr := s.idem.Release(ctx, input.OwnerID, input.IdempotencyKey); relErr != nil {
				s.logger.Warn().Err(relErr).Str("idempotency_key", input.IdempotencyKey).Msg("failed to release idempotency key")
			}
		}
		return nil, fmt.Errorf("create contract: %w", err)
	}

	if reserved {
		if err := s.idem.Complete(ctx, input.OwnerID, input.IdempotencyKey, created.ID); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", input.IdempotencyKey).Msg("failed to store idempotency key")
		}
	}

	s.logger.Info().Str("contract_id", created.ID).Str("user_id", input.OwnerID).Msg("contract created")
	return &ports.CreateContractResult{Contract: created}, nil
}

// replay loads the contract recorded under key, or nil when it is gone.
func (s *ContractService) replay(ctx context.Context, ownerID, key, id string) *domain.Contract {
	existing, err := s.repo.FindOwned(ctx, id, ownerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("contract_id", id).Msg("idempotency key points to unreadable contract")
		return nil
	}
	s.logger.Info().Str("idempotency_key", key).Str("contract_id", id).Msg("idempotent replay")
	return existing
}

// Get returns a contract owned by ownerID. Someone else's contract is reported
// as domain.ErrNotFound.
func (s *ContractService) Get(ctx context.Context, id, ownerID string) (*domain.Contract, error) {
	return s.repo.FindOwned(ctx, id, ownerID)
}

// List returns a page of the owner's active contracts.
func (s *ContractService) List(ctx context.Context, input ports.ListContractsInput) (*ports.ListContractsResult, error) {
	if input.Limit < 0 || input.Skip < 0 {
		return nil, domain.ErrInvalidValue
	}
	limit := input.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	items, total, err := s.repo.ListActive(ctx, ports.ListContractsFilter{
		OwnerID: input.OwnerID,
		Limit:   limit,
		Skip:    input.Skip,
	})
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	if items == nil {
		items = []*domain.Contract{}
	}
	return &ports.ListContractsResult{Contracts: items, Count: total}, nil
}

// Update applies a partial change to an active contract owned by ownerID.
// A missing, foreign or cancelled contract yields domain.ErrForbidden.
func (s *ContractService) Update(ctx context.Context, id, ownerID string, patch domain.ContractPatch) (*domain.Contract, error) {
	if patch.Empty() {
		return nil, domain.ErrMissingParameters
	}
	patch, err := normalizePatch(patch)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateOwned(ctx, id, ownerID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("update contract: %w", err)
	}

	s.logger.Info().Str("contract_id", id).Str("user_id", ownerID).Msg("contract updated")
	return updated, nil
}

// Cancel marks an owned contract as cancelled. Cancelling twice is harmless.
func (s *ContractService) Cancel(ctx context.Context, id, ownerID string) error {
	if _, err := s.repo.CancelOwned(ctx, id, ownerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrForbidden
		}
		return fmt.Errorf("cancel contract: %w", err)
	}

	s.logger.Info().Str("contract_id", id).Str("user_id", ownerID).Msg("contract cancelled")
	return nil
}

// normalizePatch trims text fields and rejects blank or non-positive values.
func normalizePatch(p domain.ContractPatch) (domain.ContractPatch, error) {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return p, domain.ErrInvalidValue
		}
		p.Title = &title
	}
	if p.CompanyName != nil {
		companyName := strings.TrimSpace(*p.CompanyName)
		if companyName == "" {
			return p, domain.ErrInvalidValue
		}
		p.CompanyName = &companyName
	}
	if p.YearlyPrice != nil && *p.YearlyPrice <= 0 {
		return p, domain.ErrInvalidValue
	}
	return p, nil
}
