package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/holycode/contracts-api/internal/core/domain"
	"github.com/holycode/contracts-api/internal/core/ports"
)

const collectionContracts = "contracts"

type ContractRepository struct {
	col *mongo.Collection
}

func NewContractRepository(db *mongo.Database) *ContractRepository {
	return &ContractRepository{col: db.Collection(collectionContracts)}
}

type mongoContract struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	CompanyName string             `bson:"companyName"`
	YearlyPrice float64            `bson:"yearlyPrice"`
	Content     string             `bson:"content,omitempty"`
	Cancelled   bool               `bson:"cancelled"`
	CreatedBy   primitive.ObjectID `bson:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (mc mongoContract) toDomain() *domain.Contract {
	return &domain.Contract{
		ID:          mc.ID.Hex(),
		Title:       mc.Title,
		CompanyName: mc.CompanyName,
		YearlyPrice: mc.YearlyPrice,
		Content:     mc.Content,
		Cancelled:   mc.Cancelled,
		CreatedBy:   mc.CreatedBy.Hex(),
		CreatedAt:   mc.CreatedAt.UTC(),
		UpdatedAt:   mc.UpdatedAt.UTC(),
	}
}

// ownedFilter scopes a query to a single record held by ownerID. Malformed ids
// cannot match anything and are reported as domain.ErrNotFound.
func ownedFilter(id, ownerID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return bson.M{"_id": oid, "createdBy": owner}, nil
}

// Create inserts a new contract.
func (r *ContractRepository) Create(ctx context.Context, c *domain.Contract) (*domain.Contract, error) {
	owner, err := primitive.ObjectIDFromHex(c.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("insert contract: %w", domain.ErrInvalidIdentifier)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoContract{
		Title:       c.Title,
		CompanyName: c.CompanyName,
		YearlyPrice: c.YearlyPrice,
		Content:     c.Content,
		Cancelled:   false,
		CreatedBy:   owner,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert contract: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert contract: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

// FindOwned retrieves a contract by id, filtered by owner.
func (r *ContractRepository) FindOwned(ctx context.Context, id, ownerID string) (*domain.Contract, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mc mongoContract
	if err := r.col.FindOne(ctx, filter).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find contract: %w", err)
	}
	return mc.toDomain(), nil
}

// ListActive returns the newest-first page of an owner's non-cancelled
// contracts and their total count.
func (r *ContractRepository) ListActive(ctx context.Context, f ports.ListContractsFilter) ([]*domain.Contract, int64, error) {
	owner, err := primitive.ObjectIDFromHex(f.OwnerID)
	if err != nil {
		return []*domain.Contract{}, 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"createdBy": owner, "cancelled": false}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count contracts: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(f.Skip))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find contracts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoContract
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode contracts: %w", err)
	}

	out := make([]*domain.Contract, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, total, nil
}

// UpdateOwned atomically applies patch to an active contract held by ownerID.
// The filter-and-update runs as one findAndModify, so a concurrent request by
// another user can never match.
func (r *ContractRepository) UpdateOwned(ctx context.Context, id, ownerID string, patch domain.ContractPatch) (*domain.Contract, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	filter["cancelled"] = false

	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.CompanyName != nil {
		set["companyName"] = *patch.CompanyName
	}
	if patch.YearlyPrice != nil {
		set["yearlyPrice"] = *patch.YearlyPrice
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}

	return r.findAndSet(ctx, filter, set)
}

// CancelOwned sets the cancelled flag. It never clears it.
func (r *ContractRepository) CancelOwned(ctx context.Context, id, ownerID string) (*domain.Contract, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	return r.findAndSet(ctx, filter, bson.M{"cancelled": true, "updatedAt": time.Now().UTC()})
}

func (r *ContractRepository) findAndSet(ctx context.Context, filter, set bson.M) (*domain.Contract, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mc mongoContract
	err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&mc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update contract: %w", err)
	}
	return mc.toDomain(), nil
}

// EnsureIndexes creates the indexes backing owner-scoped queries.
func (r *ContractRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "cancelled", Value: 1}, {Key: "createdAt", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
