package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "babiloc/internal/domain/booking"
	domainproperty "babiloc/internal/domain/property"
	domainreviews "babiloc/internal/domain/reviews"
	"babiloc/internal/domain/user"
)

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection(colReviews)}
}

func (r *ReviewRepository) ByID(ctx context.Context, id domainreviews.ReviewID) (*domainreviews.Review, error) {
	var doc reviewDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, notFound(err, domainreviews.ErrNotFound)
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ByAuthor(ctx context.Context, author user.ID, id domainproperty.ID) (*domainreviews.Review, error) {
	var doc reviewDocument
	if err := r.col.FindOne(ctx, bson.M{"author_id": string(author), "property_id": string(id)}).Decode(&doc); err != nil {
		return nil, notFound(err, domainreviews.ErrNotFound)
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ListByProperty(ctx context.Context, id domainproperty.ID, limit, offset int) ([]*domainreviews.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	cur, err := r.col.Find(ctx, bson.M{"property_id": string(id)}, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	var docs []reviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err)
	}
	out := make([]*domainreviews.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

// Save relies on the unique (author_id, property_id) index for the one-review rule.
func (r *ReviewRepository) Save(ctx context.Context, rev *domainreviews.Review) error {
	doc := newReviewDocument(rev)
	doc.Version = rev.Version + 1
	if rev.Version == 0 {
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domainreviews.ErrAlreadyExists
			}
			return mapErr(err)
		}
	} else if err := replaceVersioned(ctx, r.col, doc.ID, rev.Version, doc); err != nil {
		return err
	}
	rev.Version = doc.Version
	return nil
}

type reviewDocument struct {
	ID            string         `bson:"_id"`
	PropertyID    string         `bson:"property_id"`
	AuthorID      string         `bson:"author_id"`
	ReservationID string         `bson:"reservation_id,omitempty"`
	Rating        int            `bson:"rating"`
	Scores        scoresDocument `bson:"scores"`
	Recommend     bool           `bson:"recommend"`
	Comment       string         `bson:"comment"`
	OwnerReply    string         `bson:"owner_reply,omitempty"`
	ReplyAt       *time.Time     `bson:"reply_at,omitempty"`
	CreatedAt     time.Time      `bson:"created_at"`
	Version       int64          `bson:"version"`
}

type scoresDocument struct {
	Cleanliness   int `bson:"cleanliness,omitempty"`
	Accuracy      int `bson:"accuracy,omitempty"`
	Communication int `bson:"communication,omitempty"`
	Location      int `bson:"location,omitempty"`
	Value         int `bson:"value,omitempty"`
}

func newReviewDocument(r *domainreviews.Review) reviewDocument {
	return reviewDocument{
		ID:            string(r.ID),
		PropertyID:    string(r.PropertyID),
		AuthorID:      string(r.AuthorID),
		ReservationID: string(r.ReservationID),
		Rating:        r.Rating,
		Scores:        scoresDocument(r.Scores),
		Recommend:     r.Recommend,
		Comment:       r.Comment,
		OwnerReply:    r.OwnerReply,
		ReplyAt:       r.ReplyAt,
		CreatedAt:     r.CreatedAt,
		Version:       r.Version,
	}
}

func (d reviewDocument) toAggregate() *domainreviews.Review {
	var replyAt *time.Time
	if d.ReplyAt != nil {
		at := d.ReplyAt.UTC()
		replyAt = &at
	}
	return &domainreviews.Review{
		ID:            domainreviews.ReviewID(d.ID),
		PropertyID:    domainproperty.ID(d.PropertyID),
		AuthorID:      user.ID(d.AuthorID),
		ReservationID: domainbooking.ReservationID(d.ReservationID),
		Rating:        d.Rating,
		Scores:        domainreviews.Scores(d.Scores),
		Recommend:     d.Recommend,
		Comment:       d.Comment,
		OwnerReply:    d.OwnerReply,
		ReplyAt:       replyAt,
		CreatedAt:     d.CreatedAt.UTC(),
		Version:       d.Version,
	}
}
