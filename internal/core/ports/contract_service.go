package ports

import (
	"context"

	"github.com/holycode/contracts-api/internal/core/domain"
)

// CreateContractInput carries the data for a new contract. OwnerID always
// comes from the authenticated actor, never from the request body.
type CreateContractInput struct {
	OwnerID        string
	Title          string
	CompanyName    string
	YearlyPrice    float64
	Content        string
	IdempotencyKey string
}

// CreateContractResult wraps the created contract.
type CreateContractResult struct {
	Contract *domain.Contract
	// Replayed is true when the Idempotency-Key matched an earlier creation.
	Replayed bool
}

// ListContractsInput carries paging for the list endpoint.
type ListContractsInput struct {
	OwnerID string
	Limit   int
	Skip    int
}

// ListContractsResult is a page of active contracts.
type ListContractsResult struct {
	Contracts []*domain.Contract
	Count     int64
}

// ContractService defines use-case operations for contracts.
type ContractService interface {
	Create(ctx context.Context, input CreateContractInput) (*CreateContractResult, error)
	Get(ctx context.Context, id, ownerID string) (*domain.Contract, error)
	List(ctx context.Context, input ListContractsInput) (*ListContractsResult, error)
	Update(ctx context.Context, id, ownerID string, patch domain.ContractPatch) (*domain.Contract, error)
	Cancel(ctx context.Context, id, ownerID string) error
}
