package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	reservationTTL        = time.Minute
	pendingMarker         = "pending"
)

// IdempotencyStore maps a client-supplied Idempotency-Key to the contract it
// created. Keys are namespaced per owner so two users can never collide.
// Key format: idem:contracts:<owner_id>:<key>
//
// A key holds "pending" from Reserve until Complete or Release. Pending
// reservations expire on their own if the holder dies mid-request.
type IdempotencyStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore. A non-positive ttl falls
// back to 24h.
func NewIdempotencyStore(client redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key with SETNX. When another request holds it, the recorded
// contract id is returned, or "" while that request is still pending.
func (s *IdempotencyStore) Reserve(ctx context.Context, ownerID, key string) (bool, string, error) {
	k := idempotencyKey(ownerID, key)
	ok, err := s.client.SetNX(ctx, k, pendingMarker, reservationTTL).Result()
	if err != nil {
		return false, "", fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return true, "", nil
	}

	id, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Released or expired between SETNX and GET; treat as still in flight.
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("idempotency lookup: %w", err)
	}
	if id == pendingMarker {
		return false, "", nil
	}
	return false, id, nil
}

// Complete overwrites the reservation with contractID for the full ttl.
func (s *IdempotencyStore) Complete(ctx context.Context, ownerID, key, contractID string) error {
	if err := s.client.Set(ctx, idempotencyKey(ownerID, key), contractID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release drops a reservation so the client can retry.
func (s *IdempotencyStore) Release(ctx context.Context, ownerID, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(ownerID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func idempotencyKey(ownerID, key string) string {
	return fmt.Sprintf("idem:contracts:%s:%s", ownerID, key)
}
