package repository

import (
	rentalserrors "bikerent/internal/rentals/errors"
	"bikerent/pkg/config"
	mongotx "bikerent/pkg/db/mongo"
	"bikerent/pkg/model"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRentalRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoRentalRepository(cfg *config.Config) RentalRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRentalRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(RentalsCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// A SessionContext cannot be wrapped without losing the session, so it is
// returned unchanged with a no-op cancel function.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		if remaining := time.Until(deadline); remaining < timeout {
			return context.WithTimeout(ctx, remaining)
		}
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoRentalRepository) Create(ctx context.Context, rental *model.Rental) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	rental.ID = ""
	rental.Open = rental.ReturnedAt == nil
	result, err := r.collection.InsertOne(ctx, rental)
	if err != nil {
		if mapped := mapDuplicateOpenRental(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create rental: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rental.ID = oid.Hex()
	}
	return nil
}

// mapDuplicateOpenRental translates a violation of an open-rental unique index
// into the matching domain error.
func mapDuplicateOpenRental(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, IndexOpenByAsset):
		return rentalserrors.ErrAssetUnavailable
	case strings.Contains(msg, IndexOpenByRenter):
		return rentalserrors.ErrRenterHasOpenReservation
	}
	return nil
}

func (r *mongoRentalRepository) FindByID(ctx context.Context, id string) (*model.Rental, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", rentalserrors.ErrInvalidID, id)
	}

	var rental model.Rental
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&rental)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, rentalserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find rental: %w", err)
	}

	return &rental, nil
}

// Update closes the rental only while it is still open in storage, so of two
// concurrent returns exactly one matches.
func (r *mongoRentalRepository) Update(ctx context.Context, rental *model.Rental) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(rental.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", rentalserrors.ErrInvalidID, rental.ID)
	}

	filter := bson.M{"_id": objectID, "open": true}
	update := bson.M{
		"$set": bson.M{
			"returned_at": rental.ReturnedAt,
			"open":        false,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update rental: %w", err)
	}

	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if err != nil {
			return fmt.Errorf("failed to check rental existence: %w", err)
		}
		if count == 0 {
			return rentalserrors.ErrNotFound
		}
		return rentalserrors.ErrAlreadyReturned
	}

	rental.Open = false
	return nil
}

func (r *mongoRentalRepository) HasOpenByAsset(ctx context.Context, assetID string) (bool, error) {
	return r.hasOpen(ctx, bson.M{"asset_id": assetID, "open": true})
}

func (r *mongoRentalRepository) HasOpenByRenter(ctx context.Context, renterID string) (bool, error) {
	return r.hasOpen(ctx, bson.M{"renter_id": renterID, "open": true})
}

func (r *mongoRentalRepository) hasOpen(ctx context.Context, filter bson.M) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count open rentals: %w", err)
	}
	return count > 0, nil
}

func (r *mongoRentalRepository) Search(ctx context.Context, filter model.RentalFilter, limit int, offset int64) ([]*model.Rental, error) {
	return r.find(ctx, buildRentalFilter(filter), limit, offset)
}

func (r *mongoRentalRepository) CountSearch(ctx context.Context, filter model.RentalFilter) (int64, error) {
	return r.count(ctx, buildRentalFilter(filter))
}

func (r *mongoRentalRepository) FindByRenter(ctx context.Context, renterID string, limit int, offset int64) ([]*model.Rental, error) {
	return r.find(ctx, bson.M{"renter_id": renterID}, limit, offset)
}

func (r *mongoRentalRepository) CountByRenter(ctx context.Context, renterID string) (int64, error) {
	return r.count(ctx, bson.M{"renter_id": renterID})
}

func (r *mongoRentalRepository) FindOverdue(ctx context.Context, now time.Time) ([]*model.Rental, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "expected_return_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, buildOverdueFilter(now), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find overdue rentals: %w", err)
	}
	defer cursor.Close(ctx)

	rentals := []*model.Rental{}
	if err = cursor.All(ctx, &rentals); err != nil {
		return nil, fmt.Errorf("failed to decode overdue rentals: %w", err)
	}
	return rentals, nil
}

func (r *mongoRentalRepository) find(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Rental, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rentals: %w", err)
	}
	defer cursor.Close(ctx)

	rentals := []*model.Rental{}
	if err = cursor.All(ctx, &rentals); err != nil {
		return nil, fmt.Errorf("failed to decode rentals: %w", err)
	}
	return rentals, nil
}

func (r *mongoRentalRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count rentals: %w", err)
	}
	return count, nil
}

func (r *mongoRentalRepository) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, mongotx.TransactionFunc(fn))
}

func (r *mongoRentalRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}
