package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	providererrors "medibook/internal/providers/errors"
	"medibook/pkg/config"
	mongotx "medibook/pkg/db/mongo"
	"medibook/pkg/model"
)

const (
	CollectionName = "Providers"
)

type mongoProviderRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ProviderRepository interface {
	Create(ctx context.Context, p *model.Provider) error
	FindByID(ctx context.Context, id string) (*model.Provider, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, error)
	Count(ctx context.Context) (int64, error)
	UpdateAvailability(ctx context.Context, id string, availability model.Availability, fee *float64) error
	UpdateRatingAggregate(ctx context.Context, id string, aggregate model.RatingAggregate) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoProviderRepository(cfg *config.Config) ProviderRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProviderRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context
// unchanged with a no-op cancel function, as wrapping a SessionContext would
// break transaction semantics.
func (r *mongoProviderRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining > timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoProviderRepository) Create(ctx context.Context, p *model.Provider) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	p.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid.Hex()
	}
	return nil
}

func (r *mongoProviderRepository) FindByID(ctx context.Context, id string) (*model.Provider, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", providererrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}

	var p model.Provider
	err = r.collection.FindOne(ctx, filter).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", providererrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find provider: %w", err)
	}

	return &p, nil
}

func (r *mongoProviderRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	filter := bson.M{"active": true}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}
	defer cursor.Close(ctx)

	var providers []*model.Provider
	if err = cursor.All(ctx, &providers); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	return providers, nil
}

func (r *mongoProviderRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"active": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count providers: %w", err)
	}
	return count, nil
}

func (r *mongoProviderRepository) UpdateAvailability(ctx context.Context, id string, availability model.Availability, fee *float64) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", providererrors.ErrInvalidID, id)
	}

	set := bson.M{
		"availability": availability,
	}
	if fee != nil {
		set["fee"] = *fee
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update provider availability: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", providererrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoProviderRepository) UpdateRatingAggregate(ctx context.Context, id string, aggregate model.RatingAggregate) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", providererrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"rating_average": aggregate.Average,
			"rating_count":   aggregate.TotalReviews,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update provider rating aggregate: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", providererrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoProviderRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
