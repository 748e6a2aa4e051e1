package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"babiloc/internal/domain/shared/events"
	"babiloc/internal/domain/user"
)

var (
	ErrNotFound      = errors.New("property: not found")
	ErrOwnerRequired = errors.New("property: owner is required")
	ErrTitleRequired = errors.New("property: title is required")
)

type ID string

type Property struct {
	ID          ID
	OwnerID     user.ID
	Title       string
	City        string
	Address     string
	Description string
	Verified    bool
	Rating      float64
	ReviewCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	Save(ctx context.Context, p *Property) error
	ListByOwner(ctx context.Context, owner user.ID) ([]*Property, error)
}

type CreateParams struct {
	ID          ID
	OwnerID     user.ID
	Title       string
	City        string
	Address     string
	Description string
	CreatedAt   time.Time
}

func New(params CreateParams) (*Property, error) {
	if strings.TrimSpace(string(params.OwnerID)) == "" {
		return nil, ErrOwnerRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	now := params.CreatedAt.UTC()
	p := &Property{
		ID:          params.ID,
		OwnerID:     params.OwnerID,
		Title:       title,
		City:        strings.TrimSpace(params.City),
		Address:     strings.TrimSpace(params.Address),
		Description: strings.TrimSpace(params.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.Record(PropertyCreated{PropertyID: p.ID, OwnerID: p.OwnerID, At: now})
	return p, nil
}

// OwnedBy reports whether id owns the property.
func (p *Property) OwnedBy(id user.ID) bool {
	return p != nil && p.OwnerID == id
}

// CanManage allows the owner and privileged actors.
func (p *Property) CanManage(actor user.Actor) bool {
	return actor.Privileged() || p.OwnedBy(actor.ID)
}

func (p *Property) Verify(now time.Time) {
	if p.Verified {
		return
	}
	p.Verified = true
	p.UpdatedAt = now.UTC()
	p.Record(PropertyVerified{PropertyID: p.ID, At: p.UpdatedAt})
}

// ApplyRating folds a new review rating into the denormalized average.
func (p *Property) ApplyRating(rating int, now time.Time) {
	total := p.Rating*float64(p.ReviewCount) + float64(rating)
	p.ReviewCount++
	p.Rating = total / float64(p.ReviewCount)
	p.UpdatedAt = now.UTC()
}

type PropertyCreated struct {
	PropertyID ID
	OwnerID    user.ID
	At         time.Time
}

func (e PropertyCreated) EventName() string     { return "property.created" }
func (e PropertyCreated) AggregateID() string   { return string(e.PropertyID) }
func (e PropertyCreated) OccurredAt() time.Time { return e.At }

type PropertyVerified struct {
	PropertyID ID
	At         time.Time
}

func (e PropertyVerified) EventName() string     { return "property.verified" }
func (e PropertyVerified) AggregateID() string   { return string(e.PropertyID) }
func (e PropertyVerified) OccurredAt() time.Time { return e.At }
