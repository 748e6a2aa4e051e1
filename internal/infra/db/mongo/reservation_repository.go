package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "babiloc/internal/domain/booking"
	domainpricing "babiloc/internal/domain/pricing"
	domainproperty "babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/daterange"
	"babiloc/internal/domain/shared/money"
	"babiloc/internal/domain/user"
)

type ReservationRepository struct {
	col   *mongo.Collection
	locks *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{
		col:   db.Collection(colReservations),
		locks: db.Collection(colBookingLocks),
	}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainbooking.ReservationID) (*domainbooking.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, notFound(err, domainbooking.ErrNotFound)
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *domainbooking.Reservation) error {
	doc := newReservationDocument(res)
	doc.Version = res.Version + 1
	if err := replaceVersioned(ctx, r.col, doc.ID, res.Version, doc); err != nil {
		return err
	}
	res.Version = doc.Version
	return nil
}

// LockProperty bumps a per-property counter inside the transaction. Two transactions
// booking the same property both write this document, so the later one fails with a
// write conflict instead of both passing the overlap check.
func (r *ReservationRepository) LockProperty(ctx context.Context, id domainproperty.ID) error {
	_, err := r.locks.UpdateOne(ctx,
		bson.M{"_id": string(id)},
		bson.M{"$inc": bson.M{"seq": 1}, "$set": bson.M{"locked_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return mapErr(err)
}

func (r *ReservationRepository) ActiveByProperty(ctx context.Context, id domainproperty.ID) ([]*domainbooking.Reservation, error) {
	return r.find(ctx, bson.M{
		"property_id": string(id),
		"status":      bson.M{"$in": statusStrings(domainbooking.ActiveStatuses)},
	})
}

func (r *ReservationRepository) ListByRenter(ctx context.Context, renter user.ID, statuses []domainbooking.Status) ([]*domainbooking.Reservation, error) {
	filter := bson.M{"renter_id": string(renter)}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statusStrings(statuses)}
	}
	return r.find(ctx, filter)
}

func (r *ReservationRepository) ListByOwner(ctx context.Context, owner user.ID, statuses []domainbooking.Status) ([]*domainbooking.Reservation, error) {
	filter := bson.M{"owner_id": string(owner)}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statusStrings(statuses)}
	}
	return r.find(ctx, filter)
}

func (r *ReservationRepository) ListDue(ctx context.Context, now time.Time) ([]*domainbooking.Reservation, error) {
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"status": string(domainbooking.StatusConfirmed), "date_start": bson.M{"$lte": now}},
		bson.M{"status": string(domainbooking.StatusInProgress), "date_end": bson.M{"$lte": now}},
	}})
}

func (r *ReservationRepository) CompletedFor(ctx context.Context, renter user.ID, id domainproperty.ID) ([]*domainbooking.Reservation, error) {
	return r.find(ctx, bson.M{
		"renter_id":   string(renter),
		"property_id": string(id),
		"status":      string(domainbooking.StatusCompleted),
	})
}

func (r *ReservationRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date_start", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	var docs []reservationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err)
	}
	out := make([]*domainbooking.Reservation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func statusStrings(statuses []domainbooking.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

type reservationDocument struct {
	ID          string               `bson:"_id"`
	PropertyID  string               `bson:"property_id"`
	RenterID    string               `bson:"renter_id"`
	OwnerID     string               `bson:"owner_id"`
	DateStart   time.Time            `bson:"date_start"`
	DateEnd     time.Time            `bson:"date_end"`
	Kind        string               `bson:"tariff_kind"`
	PromoCode   string               `bson:"promo_code,omitempty"`
	Gross       money.Money          `bson:"gross"`
	Commission  money.Money          `bson:"commission"`
	OwnerNet    money.Money          `bson:"owner_net"`
	Status      string               `bson:"status"`
	ConfirmedAt *time.Time           `bson:"confirmed_at,omitempty"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
	History     []transitionDocument `bson:"history"`
	Version     int64                `bson:"version"`
}

type transitionDocument struct {
	From   string    `bson:"from"`
	To     string    `bson:"to"`
	At     time.Time `bson:"at"`
	Actor  string    `bson:"actor"`
	Reason string    `bson:"reason,omitempty"`
}

func newReservationDocument(r *domainbooking.Reservation) reservationDocument {
	history := make([]transitionDocument, 0, len(r.History))
	for _, t := range r.History {
		history = append(history, transitionDocument{
			From:   string(t.From),
			To:     string(t.To),
			At:     t.At,
			Actor:  string(t.Actor),
			Reason: t.Reason,
		})
	}
	return reservationDocument{
		ID:          string(r.ID),
		PropertyID:  string(r.PropertyID),
		RenterID:    string(r.RenterID),
		OwnerID:     string(r.OwnerID),
		DateStart:   r.Range.Start,
		DateEnd:     r.Range.End,
		Kind:        string(r.Kind),
		PromoCode:   r.PromoCode,
		Gross:       r.Gross,
		Commission:  r.Commission,
		OwnerNet:    r.OwnerNet,
		Status:      string(r.Status),
		ConfirmedAt: r.ConfirmedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		History:     history,
		Version:     r.Version,
	}
}

func (d reservationDocument) toAggregate() *domainbooking.Reservation {
	history := make([]domainbooking.Transition, 0, len(d.History))
	for _, t := range d.History {
		history = append(history, domainbooking.Transition{
			From:   domainbooking.Status(t.From),
			To:     domainbooking.Status(t.To),
			At:     t.At.UTC(),
			Actor:  user.ID(t.Actor),
			Reason: t.Reason,
		})
	}
	var confirmed *time.Time
	if d.ConfirmedAt != nil {
		at := d.ConfirmedAt.UTC()
		confirmed = &at
	}
	return &domainbooking.Reservation{
		ID:          domainbooking.ReservationID(d.ID),
		PropertyID:  domainproperty.ID(d.PropertyID),
		RenterID:    user.ID(d.RenterID),
		OwnerID:     user.ID(d.OwnerID),
		Range:       daterange.DateRange{Start: d.DateStart.UTC(), End: d.DateEnd.UTC()},
		Kind:        domainpricing.Kind(d.Kind),
		PromoCode:   d.PromoCode,
		Gross:       d.Gross,
		Commission:  d.Commission,
		OwnerNet:    d.OwnerNet,
		Status:      domainbooking.Status(d.Status),
		ConfirmedAt: confirmed,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		History:     history,
		Version:     d.Version,
	}
}
