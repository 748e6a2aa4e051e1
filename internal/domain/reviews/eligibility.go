package reviews

import (
	"context"
	"errors"
	"time"

	"babiloc/internal/domain/booking"
	"babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/user"
)

// Eligibility is the gate's answer. Reason is a failure code when Allowed is false.
type Eligibility struct {
	Allowed       bool
	Reason        string
	ReservationID booking.ReservationID
}

// Err converts a refusal into an eligibility failure.
func (e Eligibility) Err() error {
	if e.Allowed {
		return nil
	}
	return failure.Eligibility(e.Reason, reasonText[e.Reason])
}

var reasonText = map[string]string{
	failure.CodeAlreadyReviewed: "already reviewed",
	failure.CodeSelfReview:      "cannot review own property",
	failure.CodeNoCompletedStay: "no completed stay",
}

// Gate decides whether a user may review a property.
type Gate struct {
	Reviews      Repository
	Reservations booking.Repository
}

func (g Gate) CanReview(ctx context.Context, userID user.ID, prop *property.Property) (Eligibility, error) {
	existing, err := g.Reviews.ByAuthor(ctx, userID, prop.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Eligibility{}, err
	}
	var completed []*booking.Reservation
	if existing == nil && !prop.OwnedBy(userID) {
		completed, err = g.Reservations.CompletedFor(ctx, userID, prop.ID)
		if err != nil {
			return Eligibility{}, err
		}
	}
	return Evaluate(userID, prop, existing, completed), nil
}

// Evaluate applies the rules in order: prior review, ownership, completed stay.
func Evaluate(userID user.ID, prop *property.Property, existing *Review, completed []*booking.Reservation) Eligibility {
	if existing != nil {
		return Eligibility{Reason: failure.CodeAlreadyReviewed}
	}
	if prop.OwnedBy(userID) {
		return Eligibility{Reason: failure.CodeSelfReview}
	}
	var latest *booking.Reservation
	var latestAt time.Time
	for _, r := range completed {
		if r.RenterID != userID || r.PropertyID != prop.ID || r.Status != booking.StatusCompleted {
			continue
		}
		at := completedAt(r)
		if latest == nil || at.After(latestAt) {
			latest, latestAt = r, at
		}
	}
	if latest == nil {
		return Eligibility{Reason: failure.CodeNoCompletedStay}
	}
	return Eligibility{Allowed: true, ReservationID: latest.ID}
}

func completedAt(r *booking.Reservation) time.Time {
	for i := len(r.History) - 1; i >= 0; i-- {
		if r.History[i].To == booking.StatusCompleted {
			return r.History[i].At
		}
	}
	return r.Range.End
}
