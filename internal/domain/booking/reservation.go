package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"babiloc/internal/domain/commission"
	"babiloc/internal/domain/pricing"
	"babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/daterange"
	"babiloc/internal/domain/shared/events"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/shared/money"
	"babiloc/internal/domain/user"
)

var (
	ErrNotFound      = errors.New("booking: reservation not found")
	ErrRenterMissing = errors.New("booking: renter is required")
	ErrUnknownStatus = errors.New("booking: unknown status")
)

type ReservationID string

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCancelled  Status = "cancelled"
	StatusCompleted  Status = "completed"
)

// ActiveStatuses block the calendar for other reservations.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed, StatusInProgress}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCancelled, StatusCompleted:
		return s, nil
	}
	return "", ErrUnknownStatus
}

func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusInProgress
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Transition is one immutable audit entry of the lifecycle.
type Transition struct {
	From   Status
	To     Status
	At     time.Time
	Actor  user.ID
	Reason string
}

type Reservation struct {
	ID          ReservationID
	PropertyID  property.ID
	RenterID    user.ID
	OwnerID     user.ID
	Range       daterange.DateRange
	Kind        pricing.Kind
	PromoCode   string
	Gross       money.Money
	Commission  money.Money
	OwnerNet    money.Money
	Status      Status
	ConfirmedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	History     []Transition
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	Save(ctx context.Context, r *Reservation) error
	// LockProperty serializes booking writes for one property within the current unit of work.
	LockProperty(ctx context.Context, id property.ID) error
	ActiveByProperty(ctx context.Context, id property.ID) ([]*Reservation, error)
	ListByRenter(ctx context.Context, renter user.ID, statuses []Status) ([]*Reservation, error)
	ListByOwner(ctx context.Context, owner user.ID, statuses []Status) ([]*Reservation, error)
	// ListDue returns confirmed reservations that started and in-progress ones that ended at or before now.
	ListDue(ctx context.Context, now time.Time) ([]*Reservation, error)
	CompletedFor(ctx context.Context, renter user.ID, id property.ID) ([]*Reservation, error)
}

type CreateParams struct {
	ID         ReservationID
	PropertyID property.ID
	RenterID   user.ID
	OwnerID    user.ID
	Range      daterange.DateRange
	Quote      pricing.Quote
	CreatedAt  time.Time
}

// NewReservation creates a pending reservation with its price split already computed.
func NewReservation(params CreateParams) (*Reservation, error) {
	if strings.TrimSpace(string(params.RenterID)) == "" {
		return nil, ErrRenterMissing
	}
	if err := params.Range.Validate(); err != nil {
		return nil, failure.Validation(failure.CodeInvalidRange, "date_start must be before date_end")
	}
	split := commission.Calculate(params.Quote.Gross)
	now := params.CreatedAt.UTC()
	r := &Reservation{
		ID:         params.ID,
		PropertyID: params.PropertyID,
		RenterID:   params.RenterID,
		OwnerID:    params.OwnerID,
		Range:      params.Range,
		Kind:       params.Quote.Kind,
		PromoCode:  params.Quote.PromoCode,
		Gross:      split.Gross,
		Commission: split.Commission,
		OwnerNet:   split.OwnerNet,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.Record(ReservationCreated{
		ReservationID: r.ID,
		PropertyID:    r.PropertyID,
		RenterID:      r.RenterID,
		OwnerID:       r.OwnerID,
		Range:         r.Range,
		Gross:         r.Gross,
		Commission:    r.Commission,
		OwnerNet:      r.OwnerNet,
		At:            now,
	})
	return r, nil
}

func (r *Reservation) ownerOrPrivileged(actor user.Actor) bool {
	return actor.Privileged() || (actor.ID != "" && actor.ID == r.OwnerID)
}

// Confirm is allowed to the property owner and admins, only from pending.
func (r *Reservation) Confirm(actor user.Actor, now time.Time) error {
	if !r.ownerOrPrivileged(actor) {
		return failure.Permission("only the property owner or an admin may confirm reservation %s", r.ID)
	}
	if r.Status != StatusPending {
		return r.transitionError(StatusConfirmed)
	}
	at := now.UTC()
	r.ConfirmedAt = &at
	r.transition(StatusConfirmed, actor.ID, "", at)
	return nil
}

// Start moves a confirmed reservation into in_progress.
func (r *Reservation) Start(actor user.Actor, now time.Time) error {
	if !r.ownerOrPrivileged(actor) {
		return failure.Permission("only the property owner or an admin may start reservation %s", r.ID)
	}
	if r.Status != StatusConfirmed {
		return r.transitionError(StatusInProgress)
	}
	r.transition(StatusInProgress, actor.ID, "", now)
	return nil
}

// Complete closes an in_progress reservation.
func (r *Reservation) Complete(actor user.Actor, now time.Time) error {
	if !r.ownerOrPrivileged(actor) {
		return failure.Permission("only the property owner or an admin may complete reservation %s", r.ID)
	}
	if r.Status != StatusInProgress {
		return r.transitionError(StatusCompleted)
	}
	r.transition(StatusCompleted, actor.ID, "", now)
	return nil
}

// Cancel is allowed to the renter, the owner and admins, from pending or confirmed.
func (r *Reservation) Cancel(actor user.Actor, reason string, now time.Time) error {
	if !r.ownerOrPrivileged(actor) && (actor.ID == "" || actor.ID != r.RenterID) {
		return failure.Permission("only the renter, the property owner or an admin may cancel reservation %s", r.ID)
	}
	if r.Status != StatusPending && r.Status != StatusConfirmed {
		return r.transitionError(StatusCancelled)
	}
	r.transition(StatusCancelled, actor.ID, strings.TrimSpace(reason), now)
	return nil
}

// Advance applies the date-driven transitions due at now and reports whether anything changed.
// A confirmed reservation whose end already passed goes through in_progress to completed.
func (r *Reservation) Advance(now time.Time) bool {
	changed := false
	if r.Status == StatusConfirmed && !now.Before(r.Range.Start) {
		r.transition(StatusInProgress, user.SystemActor.ID, "stay started", now)
		changed = true
	}
	if r.Status == StatusInProgress && !now.Before(r.Range.End) {
		r.transition(StatusCompleted, user.SystemActor.ID, "stay ended", now)
		changed = true
	}
	return changed
}

func (r *Reservation) transition(to Status, actor user.ID, reason string, now time.Time) {
	at := now.UTC()
	entry := Transition{From: r.Status, To: to, At: at, Actor: actor, Reason: reason}
	r.History = append(r.History, entry)
	r.Status = to
	r.UpdatedAt = at
	r.Record(ReservationStatusChanged{
		ReservationID: r.ID,
		PropertyID:    r.PropertyID,
		RenterID:      r.RenterID,
		OwnerID:       r.OwnerID,
		From:          entry.From,
		To:            entry.To,
		Actor:         actor,
		Reason:        reason,
		At:            at,
	})
}

func (r *Reservation) transitionError(to Status) error {
	return failure.InvalidTransition("reservation %s cannot move from %s to %s", r.ID, r.Status, to).
		WithReservation(string(r.ID))
}

// HistoryCopy returns the audit trail without exposing the backing slice.
func (r *Reservation) HistoryCopy() []Transition {
	out := make([]Transition, len(r.History))
	copy(out, r.History)
	return out
}
