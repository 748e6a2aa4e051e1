package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"babiloc/internal/domain/booking"
	"babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/events"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/user"
)

var (
	ErrInvalidRating = errors.New("reviews: rating must be between 1 and 5")
	ErrInvalidScore  = errors.New("reviews: category scores must be between 1 and 5 when set")
	ErrNotFound      = errors.New("reviews: not found")
	// ErrAlreadyExists is returned by repositories when (author, property) is already taken.
	ErrAlreadyExists = errors.New("reviews: review already exists for this property")
)

type ReviewID string

// Scores are optional category sub-ratings; zero means not rated.
type Scores struct {
	Cleanliness   int
	Accuracy      int
	Communication int
	Location      int
	Value         int
}

func (s Scores) validate() error {
	for _, v := range []int{s.Cleanliness, s.Accuracy, s.Communication, s.Location, s.Value} {
		if v != 0 && (v < 1 || v > 5) {
			return ErrInvalidScore
		}
	}
	return nil
}

type Review struct {
	ID            ReviewID
	PropertyID    property.ID
	AuthorID      user.ID
	ReservationID booking.ReservationID
	Rating        int
	Scores        Scores
	Recommend     bool
	Comment       string
	OwnerReply    string
	ReplyAt       *time.Time
	CreatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReviewID) (*Review, error)
	// ByAuthor returns ErrNotFound when author has not reviewed the property.
	ByAuthor(ctx context.Context, author user.ID, propertyID property.ID) (*Review, error)
	ListByProperty(ctx context.Context, propertyID property.ID, limit, offset int) ([]*Review, error)
	Save(ctx context.Context, review *Review) error
}

type SubmitParams struct {
	ID            ReviewID
	PropertyID    property.ID
	AuthorID      user.ID
	ReservationID booking.ReservationID
	Rating        int
	Scores        Scores
	Recommend     bool
	Comment       string
	CreatedAt     time.Time
}

func Submit(params SubmitParams) (*Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if err := params.Scores.validate(); err != nil {
		return nil, err
	}
	review := &Review{
		ID:            params.ID,
		PropertyID:    params.PropertyID,
		AuthorID:      params.AuthorID,
		ReservationID: params.ReservationID,
		Rating:        params.Rating,
		Scores:        params.Scores,
		Recommend:     params.Recommend,
		Comment:       strings.TrimSpace(params.Comment),
		CreatedAt:     params.CreatedAt.UTC(),
	}
	review.Record(ReviewCreated{
		ReviewID:      review.ID,
		PropertyID:    review.PropertyID,
		AuthorID:      review.AuthorID,
		ReservationID: review.ReservationID,
		Rating:        review.Rating,
		At:            review.CreatedAt,
	})
	return review, nil
}

// Reply sets the owner's single answer to the review.
func (r *Review) Reply(actor user.Actor, prop *property.Property, text string, now time.Time) error {
	if prop == nil || prop.ID != r.PropertyID || !prop.OwnedBy(actor.ID) {
		return failure.Permission("only the property owner may reply to review %s", r.ID)
	}
	if r.OwnerReply != "" || r.ReplyAt != nil {
		return failure.Conflict(failure.CodeAlreadyReplied, "review %s already has a reply", r.ID)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return failure.Validation(failure.CodeInvalidInput, "reply text is required")
	}
	at := now.UTC()
	r.OwnerReply = text
	r.ReplyAt = &at
	r.Record(ReviewReplied{ReviewID: r.ID, PropertyID: r.PropertyID, At: at})
	return nil
}

type ReviewCreated struct {
	ReviewID      ReviewID
	PropertyID    property.ID
	AuthorID      user.ID
	ReservationID booking.ReservationID
	Rating        int
	At            time.Time
}

func (e ReviewCreated) EventName() string     { return "review.created" }
func (e ReviewCreated) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewCreated) OccurredAt() time.Time { return e.At }

type ReviewReplied struct {
	ReviewID   ReviewID
	PropertyID property.ID
	At         time.Time
}

func (e ReviewReplied) EventName() string     { return "review.replied" }
func (e ReviewReplied) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewReplied) OccurredAt() time.Time { return e.At }
