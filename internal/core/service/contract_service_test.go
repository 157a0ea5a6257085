package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/holycode/contracts-api/internal/core/domain"
	"github.com/holycode/contracts-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubContractRepo struct {
	byID       map[string]*domain.Contract
	seq        int
	createErr  error
	lastFilter ports.ListContractsFilter
}

func newStubContractRepo() *stubContractRepo {
	return &stubContractRepo{byID: make(map[string]*domain.Contract)}
}

func (r *stubContractRepo) Create(_ context.Context, c *domain.Contract) (*domain.Contract, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.seq++
	clone := *c
	clone.ID = fmt.Sprintf("%024x", r.seq)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

// owned mirrors the {_id, createdBy} filter of the real store.
func (r *stubContractRepo) owned(id, ownerID string) (*domain.Contract, bool) {
	c, ok := r.byID[id]
	if !ok || c.CreatedBy != ownerID {
		return nil, false
	}
	return c, true
}

func (r *stubContractRepo) FindOwned(_ context.Context, id, ownerID string) (*domain.Contract, error) {
	c, ok := r.owned(id, ownerID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubContractRepo) ListActive(_ context.Context, f ports.ListContractsFilter) ([]*domain.Contract, int64, error) {
	r.lastFilter = f
	var out []*domain.Contract
	for _, c := range r.byID {
		if c.CreatedBy == f.OwnerID && !c.Cancelled {
			clone := *c
			out = append(out, &clone)
		}
	}
	total := int64(len(out))
	if f.Skip >= len(out) {
		return []*domain.Contract{}, total, nil
	}
	out = out[f.Skip:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r *stubContractRepo) UpdateOwned(_ context.Context, id, ownerID string, p domain.ContractPatch) (*domain.Contract, error) {
	c, ok := r.owned(id, ownerID)
	if !ok || c.Cancelled {
		return nil, domain.ErrNotFound
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.CompanyName != nil {
		c.CompanyName = *p.CompanyName
	}
	if p.YearlyPrice != nil {
		c.YearlyPrice = *p.YearlyPrice
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
	clone := *c
	return &clone, nil
}

func (r *stubContractRepo) CancelOwned(_ context.Context, id, ownerID string) (*domain.Contract, error) {
	c, ok := r.owned(id, ownerID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.Cancelled = true
	clone := *c
	return &clone, nil
}

// stubIdempotency mimics SETNX: the first Reserve wins, later ones see the
// pending marker or the completed contract id.
type stubIdempotency struct {
	mu          sync.Mutex
	keys        map[string]string
	reserveErr  error
	completeErr error
}

const stubPending = "pending"

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Reserve(_ context.Context, ownerID, key string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserveErr != nil {
		return false, "", s.reserveErr
	}
	k := ownerID + ":" + key
	v, taken := s.keys[k]
	if !taken {
		s.keys[k] = stubPending
		return true, "", nil
	}
	if v == stubPending {
		return false, "", nil
	}
	return false, v, nil
}

func (s *stubIdempotency) Complete(_ context.Context, ownerID, key, contractID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return s.completeErr
	}
	s.keys[ownerID+":"+key] = contractID
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, ownerID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, ownerID+":"+key)
	return nil
}

// slowContractRepo serialises access to the stub and stretches inserts so
// concurrent requests overlap.
type slowContractRepo struct {
	*stubContractRepo
	mu    sync.Mutex
	delay time.Duration
}

func (r *slowContractRepo) Create(ctx context.Context, c *domain.Contract) (*domain.Contract, error) {
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stubContractRepo.Create(ctx, c)
}

func (r *slowContractRepo) FindOwned(ctx context.Context, id, ownerID string) (*domain.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stubContractRepo.FindOwned(ctx, id, ownerID)
}

const (
	ownerA = "aaaaaaaaaaaaaaaaaaaaaaaa"
	ownerB = "bbbbbbbbbbbbbbbbbbbbbbbb"
)

func validInput(owner string) ports.CreateContractInput {
	return ports.CreateContractInput{
		OwnerID:     owner,
		Title:       "This is a contract title",
		CompanyName: "HolyCode",
		YearlyPrice: 2000,
	}
}

func ptr[T any](v T) *T { return &v }

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestContractService_Create(t *testing.T) {
	repo := newStubContractRepo()
	svc := NewContractService(repo, nil, zerolog.Nop())

	res, err := svc.Create(context.Background(), validInput(ownerA))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := res.Contract
	if c.ID == "" || c.CreatedBy != ownerA || c.Cancelled {
		t.Fatalf("unexpected contract: %+v", c)
	}
	if c.CreatedAt.IsZero() || c.UpdatedAt.IsZero() {
		t.Fatalf("timestamps must be set")
	}
	if res.Replayed {
		t.Fatalf("fresh creation must not be a replay")
	}
}

func TestContractService_Create_Validation(t *testing.T) {
	svc := NewContractService(newStubContractRepo(), nil, zerolog.Nop())
	ctx := context.Background()

	missing := validInput(ownerA)
	missing.Title = "  "
	if _, err := svc.Create(ctx, missing); err != domain.ErrMissingParameters {
		t.Fatalf("expected ErrMissingParameters, got %v", err)
	}

	noPrice := validInput(ownerA)
	noPrice.YearlyPrice = 0
	if _, err := svc.Create(ctx, noPrice); err != domain.ErrMissingParameters {
		t.Fatalf("expected ErrMissingParameters, got %v", err)
	}

	negative := validInput(ownerA)
	negative.YearlyPrice = -1
	if _, err := svc.Create(ctx, negative); err != domain.ErrInvalidValue {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestContractService_Create_RepoError(t *testing.T) {
	repo := newStubContractRepo()
	repo.createErr = errors.New("db down")
	svc := NewContractService(repo, nil, zerolog.Nop())

	if _, err := svc.Create(context.Background(), validInput(ownerA)); !errors.Is(err, repo.createErr) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}

func TestContractService_Create_IdempotentReplay(t *testing.T) {
	repo := newStubContractRepo()
	idem := newStubIdempotency()
	svc := NewContractService(repo, idem, zerolog.Nop())
	ctx := context.Background()

	in := validInput(ownerA)
	in.IdempotencyKey = "key-1"

	first, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if !second.Replayed || second.Contract.ID != first.Contract.ID {
		t.Fatalf("expected replay of %s, got %+v", first.Contract.ID, second)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected one stored contract, got %d", len(repo.byID))
	}
}

func TestContractService_Create_IdempotencyKeyIsPerOwner(t *testing.T) {
	repo := newStubContractRepo()
	svc := NewContractService(repo, newStubIdempotency(), zerolog.Nop())
	ctx := context.Background()

	a := validInput(ownerA)
	a.IdempotencyKey = "shared"
	b := validInput(ownerB)
	b.IdempotencyKey = "shared"

	ra, _ := svc.Create(ctx, a)
	rb, err := svc.Create(ctx, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rb.Replayed || rb.Contract.ID == ra.Contract.ID || rb.Contract.CreatedBy != ownerB {
		t.Fatalf("key must not leak across owners: %+v", rb)
	}
}

func TestContractService_Create_IdempotencyStoreDown(t *testing.T) {
	repo := newStubContractRepo()
	idem := newStubIdempotency()
	idem.reserveErr = errors.New("redis down")
	svc := NewContractService(repo, idem, zerolog.Nop())

	in := validInput(ownerA)
	in.IdempotencyKey = "key-1"
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("idempotency failures must not fail the request: %v", err)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected contract to be created")
	}
}

func TestContractService_Create_IdempotencyCompleteFails(t *testing.T) {
	repo := newStubContractRepo()
	idem := newStubIdempotency()
	idem.completeErr = errors.New("redis down")
	svc := NewContractService(repo, idem, zerolog.Nop())

	in := validInput(ownerA)
	in.IdempotencyKey = "key-1"
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("idempotency failures must not fail the request: %v", err)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected contract to be created")
	}
}

func TestContractService_Create_InFlightKeyConflicts(t *testing.T) {
	repo := newStubContractRepo()
	idem := newStubIdempotency()
	svc := NewContractService(repo, idem, zerolog.Nop())
	ctx := context.Background()

	if ok, _, _ := idem.Reserve(ctx, ownerA, "key-1"); !ok {
		t.Fatalf("expected to hold the reservation")
	}

	in := validInput(ownerA)
	in.IdempotencyKey = "key-1"
	if _, err := svc.Create(ctx, in); err != domain.ErrRequestInProgress {
		t.Fatalf("expected ErrRequestInProgress, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatalf("nothing must be stored while the key is pending")
	}
}

func TestContractService_Create_FailedInsertReleasesKey(t *testing.T) {
	repo := newStubContractRepo()
	repo.createErr = errors.New("db down")
	idem := newStubIdempotency()
	svc := NewContractService(repo, idem, zerolog.Nop())
	ctx := context.Background()

	in := validInput(ownerA)
	in.IdempotencyKey = "key-1"
	if _, err := svc.Create(ctx, in); err == nil {
		t.Fatalf("expected repo error")
	}

	repo.createErr = nil
	res, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if res.Replayed || len(repo.byID) != 1 {
		t.Fatalf("retry must create the contract: %+v", res)
	}
}

func TestContractService_Create_ConcurrentSameKey(t *testing.T) {
	repo := &slowContractRepo{stubContractRepo: newStubContractRepo(), delay: 50 * time.Millisecond}
	svc := NewContractService(repo, newStubIdempotency(), zerolog.Nop())
	ctx := context.Background()

	in := validInput(ownerA)
	in.IdempotencyKey = "key-1"

	const n = 2
	var wg sync.WaitGroup
	results := make([]*ports.CreateContractResult, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Create(ctx, in)
		}(i)
	}
	wg.Wait()

	if len(repo.byID) != 1 {
		t.Fatalf("same Idempotency-Key created %d contracts", len(repo.byID))
	}

	created := 0
	for i := 0; i < n; i++ {
		switch {
		case errs[i] == nil && !results[i].Replayed:
			created++
		case errs[i] == nil && results[i].Replayed:
		case errs[i] == domain.ErrRequestInProgress:
		default:
			t.Fatalf("unexpected result %+v err=%v", results[i], errs[i])
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one fresh creation, got %d", created)
	}
}

// ---------------------------------------------------------------------------
// Ownership
// ---------------------------------------------------------------------------

func TestContractService_OwnershipIsolation(t *testing.T) {
	repo := newStubContractRepo()
	svc := NewContractService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	res, _ := svc.Create(ctx, validInput(ownerA))
	id := res.Contract.ID

	if _, err := svc.Get(ctx, id, ownerB); err != domain.ErrNotFound {
		t.Errorf("read by non-owner: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Update(ctx, id, ownerB, domain.ContractPatch{Title: ptr("hijack")}); err != domain.ErrForbidden {
		t.Errorf("update by non-owner: expected ErrForbidden, got %v", err)
	}
	if err := svc.Cancel(ctx, id, ownerB); err != domain.ErrForbidden {
		t.Errorf("cancel by non-owner: expected ErrForbidden, got %v", err)
	}

	list, err := svc.List(ctx, ports.ListContractsInput{OwnerID: ownerB})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Count != 0 || len(list.Contracts) != 0 {
		t.Errorf("owner B must not see owner A's contracts: %+v", list)
	}

	stored := repo.byID[id]
	if stored.Title != "This is a contract title" || stored.Cancelled {
		t.Errorf("contract was modified by non-owner: %+v", stored)
	}
}

// ---------------------------------------------------------------------------
// Update / Cancel
// ---------------------------------------------------------------------------

func TestContractService_Update(t *testing.T) {
	svc := NewContractService(newStubContractRepo(), nil, zerolog.Nop())
	ctx := context.Background()

	res, _ := svc.Create(ctx, validInput(ownerA))

	updated, err := svc.Update(ctx, res.Contract.ID, ownerA, domain.ContractPatch{Title: ptr("new title")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "new title" || updated.CompanyName != "HolyCode" || updated.YearlyPrice != 2000 {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}

func TestContractService_Update_TrimsText(t *testing.T) {
	repo := newStubContractRepo()
	svc := NewContractService(repo, nil, zerolog.Nop())
	ctx := context.Background()
	res, _ := svc.Create(ctx, validInput(ownerA))

	updated, err := svc.Update(ctx, res.Contract.ID, ownerA, domain.ContractPatch{
		Title:       ptr("  New  "),
		CompanyName: ptr("\tAcme "),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "New" || updated.CompanyName != "Acme" {
		t.Fatalf("expected trimmed fields, got %q / %q", updated.Title, updated.CompanyName)
	}
	if stored := repo.byID[res.Contract.ID]; stored.Title != "New" {
		t.Fatalf("stored title not trimmed: %q", stored.Title)
	}
}

func TestContractService_Update_Validation(t *testing.T) {
	svc := NewContractService(newStubContractRepo(), nil, zerolog.Nop())
	ctx := context.Background()
	res, _ := svc.Create(ctx, validInput(ownerA))

	if _, err := svc.Update(ctx, res.Contract.ID, ownerA, domain.ContractPatch{}); err != domain.ErrMissingParameters {
		t.Errorf("expected ErrMissingParameters, got %v", err)
	}
	if _, err := svc.Update(ctx, res.Contract.ID, ownerA, domain.ContractPatch{YearlyPrice: ptr(-5.0)}); err != domain.ErrInvalidValue {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if _, err := svc.Update(ctx, res.Contract.ID, ownerA, domain.ContractPatch{CompanyName: ptr("")}); err != domain.ErrInvalidValue {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestContractService_CancelIsOneWay(t *testing.T) {
	repo := newStubContractRepo()
	svc := NewContractService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	res, _ := svc.Create(ctx, validInput(ownerA))
	id := res.Contract.ID

	if err := svc.Cancel(ctx, id, ownerA); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := svc.Cancel(ctx, id, ownerA); err != nil {
		t.Fatalf("second cancel must succeed: %v", err)
	}
	if !repo.byID[id].Cancelled {
		t.Fatalf("contract must stay cancelled")
	}

	if _, err := svc.Update(ctx, id, ownerA, domain.ContractPatch{Title: ptr("revive")}); err != domain.ErrForbidden {
		t.Fatalf("cancelled contract must not be editable, got %v", err)
	}

	list, _ := svc.List(ctx, ports.ListContractsInput{OwnerID: ownerA})
	if list.Count != 0 {
		t.Fatalf("cancelled contract must be excluded from the active list")
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestContractService_List_Paging(t *testing.T) {
	repo := newStubContractRepo()
	svc := NewContractService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, _ = svc.Create(ctx, validInput(ownerA))
	}

	res, err := svc.List(ctx, ports.ListContractsInput{OwnerID: ownerA, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Contracts) != 10 || res.Count != 15 {
		t.Fatalf("expected 10 of 15, got %d of %d", len(res.Contracts), res.Count)
	}

	if _, err := svc.List(ctx, ports.ListContractsInput{OwnerID: ownerA}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilter.Limit != defaultListLimit {
		t.Fatalf("expected default limit %d, got %d", defaultListLimit, repo.lastFilter.Limit)
	}

	_, _ = svc.List(ctx, ports.ListContractsInput{OwnerID: ownerA, Limit: 1000})
	if repo.lastFilter.Limit != maxListLimit {
		t.Fatalf("expected limit capped at %d, got %d", maxListLimit, repo.lastFilter.Limit)
	}

	if _, err := svc.List(ctx, ports.ListContractsInput{OwnerID: ownerA, Skip: -1}); err != domain.ErrInvalidValue {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestContractService_List_EmptyIsNotNil(t *testing.T) {
	svc := NewContractService(newStubContractRepo(), nil, zerolog.Nop())
	res, err := svc.List(context.Background(), ports.ListContractsInput{OwnerID: ownerA})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Contracts == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}
