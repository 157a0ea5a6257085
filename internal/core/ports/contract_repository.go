package ports

import (
	"context"

	"github.com/holycode/contracts-api/internal/core/domain"
)

// ListContractsFilter selects a page of an owner's active contracts.
type ListContractsFilter struct {
	OwnerID string
	Limit   int
	Skip    int
}

// ContractRepository persists contracts. Every per-record method is scoped by
// owner: a record held by another user behaves exactly like a missing one and
// surfaces as domain.ErrNotFound.
type ContractRepository interface {
	Create(ctx context.Context, c *domain.Contract) (*domain.Contract, error)
	FindOwned(ctx context.Context, id, ownerID string) (*domain.Contract, error)
	// ListActive returns a page of non-cancelled contracts and the total count.
	ListActive(ctx context.Context, filter ListContractsFilter) ([]*domain.Contract, int64, error)
	// UpdateOwned applies patch only while the contract is still active.
	UpdateOwned(ctx context.Context, id, ownerID string, patch domain.ContractPatch) (*domain.Contract, error)
	CancelOwned(ctx context.Context, id, ownerID string) (*domain.Contract, error)
}

// IdempotencyStore maps an Idempotency-Key to the contract it produced.
// A key is reserved atomically before the contract is inserted, so concurrent
// requests carrying the same key cannot both create one.
type IdempotencyStore interface {
	// Reserve claims key for ownerID. When the key is already taken, reserved
	// is false and contractID holds the recorded contract, or is empty while
	// the first request is still in flight.
	Reserve(ctx context.Context, ownerID, key string) (reserved bool, contractID string, err error)
	// Complete records the contract created under a reservation.
	Complete(ctx context.Context, ownerID, key, contractID string) error
	// Release drops a reservation whose creation failed.
	Release(ctx context.Context, ownerID, key string) error
}
