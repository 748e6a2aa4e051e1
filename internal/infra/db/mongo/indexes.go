package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colProperties   = "agg_property"
	colWindows      = "agg_availability_window"
	colTariffs      = "agg_tariff"
	colPromos       = "agg_promo"
	colReservations = "agg_reservation"
	colReviews      = "agg_review"
	colBookingLocks = "booking_locks"
)

// EnsureIndexes creates the lookup and uniqueness indexes the repositories rely on.
// Collections are created up front because they cannot be created inside a transaction.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		colProperties: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		},
		colWindows: {
			{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "weekday", Value: 1}}},
		},
		colTariffs: {
			{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "kind", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colReservations: {
			{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "renter_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "date_start", Value: 1}}},
		},
		colReviews: {
			{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "property_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colPromos:       nil,
		colBookingLocks: nil,
	}
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}
	for name, models := range specs {
		if !have[name] {
			if err := db.CreateCollection(ctx, name); err != nil && !isNamespaceExists(err) {
				return fmt.Errorf("mongo: create %s: %w", name, err)
			}
		}
		if len(models) == 0 {
			continue
		}
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: indexes for %s: %w", name, err)
		}
	}
	return nil
}
