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

	appointmenterrors "medibook/internal/appointments/errors"
	"medibook/pkg/config"
	mongotx "medibook/pkg/db/mongo"
	"medibook/pkg/model"
)

const (
	CollectionName = "Appointments"
)

type mongoAppointmentRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	FindActiveBySlot(ctx context.Context, providerID, date string, times []string) (*model.Appointment, error)
	FindBookedTimes(ctx context.Context, providerID, date string) ([]string, error)
	FindByClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.Appointment, error)
	CountByClient(ctx context.Context, clientID string) (int64, error)
	FindByProvider(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Appointment, error)
	CountByProvider(ctx context.Context, providerID string) (int64, error)
	FindRatedByProvider(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Appointment, error)
	CountRatedByProvider(ctx context.Context, providerID string) (int64, error)
	UpdateStatus(ctx context.Context, id string, update *model.StatusUpdate) error
	SetVisibility(ctx context.Context, id string, visible bool) error
	SetRating(ctx context.Context, id string, rating *model.Rating) error
	ClearRating(ctx context.Context, id string) error
	AggregateRating(ctx context.Context, providerID string) (model.RatingAggregate, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics, so
// it is returned unchanged with a no-op cancel.
func (r *mongoAppointmentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	appt.CreatedAt = now
	appt.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, appt)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		appt.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", appointmenterrors.ErrInvalidID, id)
	}

	var appt model.Appointment
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&appt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", appointmenterrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}

	return &appt, nil
}

// FindActiveBySlot returns the pending or confirmed appointment holding the
// given slot, matching any of the supplied time representations. Returns
// ErrNotFound when the slot is free.
func (r *mongoAppointmentRepository) FindActiveBySlot(ctx context.Context, providerID, date string, times []string) (*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"provider_id": providerID,
		"date":        date,
		"time":        bson.M{"$in": times},
		"status":      bson.M{"$in": model.ActiveStatuses},
	}

	var appt model.Appointment
	err := r.collection.FindOne(ctx, filter).Decode(&appt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appointmenterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}

	return &appt, nil
}

// FindBookedTimes returns the raw time strings of active appointments on one
// provider-day. Values may be in either clock form; callers canonicalize.
func (r *mongoAppointmentRepository) FindBookedTimes(ctx context.Context, providerID, date string) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"provider_id": providerID,
		"date":        date,
		"status":      bson.M{"$in": model.ActiveStatuses},
	}

	opts := options.Find().SetProjection(bson.M{"time": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query booked times: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		Time string `bson:"time"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode booked times: %w", err)
	}

	times := make([]string, 0, len(docs))
	for _, d := range docs {
		times = append(times, d.Time)
	}
	return times, nil
}

func (r *mongoAppointmentRepository) FindByClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.Appointment, error) {
	filter := bson.M{
		"client_id":         clientID,
		"visible_to_client": true,
	}
	return r.findPage(ctx, filter, limit, offset)
}

func (r *mongoAppointmentRepository) CountByClient(ctx context.Context, clientID string) (int64, error) {
	return r.count(ctx, bson.M{
		"client_id":         clientID,
		"visible_to_client": true,
	})
}

func (r *mongoAppointmentRepository) FindByProvider(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Appointment, error) {
	return r.findPage(ctx, bson.M{"provider_id": providerID}, limit, offset)
}

func (r *mongoAppointmentRepository) CountByProvider(ctx context.Context, providerID string) (int64, error) {
	return r.count(ctx, bson.M{"provider_id": providerID})
}

func (r *mongoAppointmentRepository) FindRatedByProvider(ctx context.Context, providerID string, limit int, offset int64) ([]*model.Appointment, error) {
	return r.findPage(ctx, bson.M{
		"provider_id":     providerID,
		"rating.is_rated": true,
	}, limit, offset)
}

func (r *mongoAppointmentRepository) CountRatedByProvider(ctx context.Context, providerID string) (int64, error) {
	return r.count(ctx, bson.M{
		"provider_id":     providerID,
		"rating.is_rated": true,
	})
}

func (r *mongoAppointmentRepository) findPage(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appointments []*model.Appointment
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appointments, nil
}

func (r *mongoAppointmentRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func (r *mongoAppointmentRepository) UpdateStatus(ctx context.Context, id string, update *model.StatusUpdate) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmenterrors.ErrInvalidID, id)
	}

	set := bson.M{
		"status":     update.Status,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if update.Diagnosis != "" {
		set["diagnosis"] = update.Diagnosis
	}
	if update.Prescription != "" {
		set["prescription"] = update.Prescription
	}
	if update.ProviderNotes != "" {
		set["provider_notes"] = update.ProviderNotes
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", appointmenterrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoAppointmentRepository) SetVisibility(ctx context.Context, id string, visible bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmenterrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"visible_to_client": visible,
			"updated_at":        time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update appointment visibility: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", appointmenterrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoAppointmentRepository) SetRating(ctx context.Context, id string, rating *model.Rating) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmenterrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"rating":     rating,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to set appointment rating: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", appointmenterrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoAppointmentRepository) ClearRating(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmenterrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$unset": bson.M{"rating": ""},
		"$set": bson.M{
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to clear appointment rating: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", appointmenterrors.ErrNotFound, id)
	}
	return nil
}

// AggregateRating computes the review summary server-side. Only documents
// with rating.is_rated set participate; an empty result resets to zero.
func (r *mongoAppointmentRepository) AggregateRating(ctx context.Context, providerID string) (model.RatingAggregate, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"provider_id":     providerID,
			"rating.is_rated": true,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"average":       bson.M{"$avg": "$rating.score"},
			"total_reviews": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return model.RatingAggregate{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var results []model.RatingAggregate
	if err = cursor.All(ctx, &results); err != nil {
		return model.RatingAggregate{}, fmt.Errorf("failed to decode rating aggregate: %w", err)
	}

	if len(results) == 0 {
		return model.RatingAggregate{Average: 0, TotalReviews: 0}, nil
	}
	return results[0], nil
}

func (r *mongoAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
