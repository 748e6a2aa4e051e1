package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "babiloc/internal/domain/availability"
	domainproperty "babiloc/internal/domain/property"
)

type WindowRepository struct {
	col *mongo.Collection
}

func NewWindowRepository(db *mongo.Database) *WindowRepository {
	return &WindowRepository{col: db.Collection(colWindows)}
}

func (r *WindowRepository) ByID(ctx context.Context, id domainavailability.WindowID) (*domainavailability.Window, error) {
	var doc windowDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, notFound(err, domainavailability.ErrWindowNotFound)
	}
	return doc.toAggregate(), nil
}

func (r *WindowRepository) ListByProperty(ctx context.Context, id domainproperty.ID) ([]*domainavailability.Window, error) {
	opts := options.Find().SetSort(bson.D{{Key: "weekday", Value: 1}, {Key: "valid_from", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"property_id": string(id)}, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	var docs []windowDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err)
	}
	out := make([]*domainavailability.Window, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *WindowRepository) Save(ctx context.Context, w *domainavailability.Window) error {
	doc := windowDocument{
		ID:         string(w.ID),
		PropertyID: string(w.PropertyID),
		Weekday:    domainavailability.WeekdayNumber(w.Weekday),
		ValidFrom:  w.ValidFrom,
		ValidTo:    w.ValidTo,
		CreatedAt:  w.CreatedAt,
	}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return mapErr(err)
}

func (r *WindowRepository) Delete(ctx context.Context, w *domainavailability.Window) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(w.ID)})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return domainavailability.ErrWindowNotFound
	}
	return nil
}

type windowDocument struct {
	ID         string    `bson:"_id"`
	PropertyID string    `bson:"property_id"`
	Weekday    int       `bson:"weekday"`
	ValidFrom  time.Time `bson:"valid_from"`
	ValidTo    time.Time `bson:"valid_to"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (d windowDocument) toAggregate() *domainavailability.Window {
	return &domainavailability.Window{
		ID:         domainavailability.WindowID(d.ID),
		PropertyID: domainproperty.ID(d.PropertyID),
		Weekday:    domainavailability.WeekdayFromNumber(d.Weekday),
		ValidFrom:  d.ValidFrom.UTC(),
		ValidTo:    d.ValidTo.UTC(),
		CreatedAt:  d.CreatedAt.UTC(),
	}
}
