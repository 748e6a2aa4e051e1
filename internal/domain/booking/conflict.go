package booking

import (
	"context"
	"errors"
	"time"

	"babiloc/internal/domain/availability"
	"babiloc/internal/domain/pricing"
	"babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/daterange"
	"babiloc/internal/domain/shared/failure"
)

// Candidate is a date range someone wants to book.
type Candidate struct {
	PropertyID property.ID
	Start      time.Time
	End        time.Time
	Kind       pricing.Kind
	// Exclude skips one reservation in the overlap check (used when re-checking an existing booking).
	Exclude ReservationID
	Now     time.Time
}

// ConflictDetector decides whether a candidate range is bookable.
// A *failure.Error result is a rejection; any other error is a storage fault.
type ConflictDetector struct {
	Tariffs      pricing.TariffRepository
	Windows      availability.Repository
	Reservations Repository
}

func (d ConflictDetector) CanBook(ctx context.Context, c Candidate) (daterange.DateRange, error) {
	r, err := checkRange(c)
	if err != nil {
		return daterange.DateRange{}, err
	}
	tariff, err := d.Tariffs.Get(ctx, c.PropertyID, c.Kind)
	if err != nil && !errors.Is(err, pricing.ErrTariffNotFound) {
		return daterange.DateRange{}, err
	}
	active, err := d.Reservations.ActiveByProperty(ctx, c.PropertyID)
	if err != nil {
		return daterange.DateRange{}, err
	}
	windows, err := d.Windows.ListByProperty(ctx, c.PropertyID)
	if err != nil {
		return daterange.DateRange{}, err
	}
	if err := Check(c, r, tariff, active, availability.NewIndex(windows)); err != nil {
		return daterange.DateRange{}, err
	}
	return r, nil
}

func checkRange(c Candidate) (daterange.DateRange, error) {
	if c.Start.IsZero() || c.End.IsZero() {
		return daterange.DateRange{}, failure.Validation(failure.CodeInvalidRange, "date_start and date_end are required")
	}
	r := daterange.DateRange{Start: daterange.Day(c.Start), End: daterange.Day(c.End)}
	if !r.Start.Before(r.End) {
		return daterange.DateRange{}, failure.Validation(failure.CodeInvalidRange, "date_start must be before date_end")
	}
	if r.Start.Before(daterange.Day(c.Now)) {
		return daterange.DateRange{}, failure.Validation(failure.CodeStartInPast, "date_start %s is in the past", r.Start.Format(time.DateOnly)).WithDate(r.Start)
	}
	return r, nil
}

// Check runs the ordered booking rules against already loaded state and returns the first rejection.
func Check(c Candidate, r daterange.DateRange, tariff *pricing.Tariff, active []*Reservation, index availability.Index) error {
	if tariff == nil || tariff.Price.Amount <= 0 {
		return failure.Pricing(failure.CodeNoTariff, "property has no %s tariff", c.Kind)
	}
	for _, existing := range active {
		if existing.ID == c.Exclude || !existing.Status.Active() {
			continue
		}
		if existing.Range.Start.Before(r.End) && existing.Range.End.After(r.Start) {
			return failure.Conflict(failure.CodeOverlap, "dates overlap reservation %s (%s)", existing.ID, existing.Range).
				WithReservation(string(existing.ID))
		}
	}
	if !index.Defined() {
		return failure.Conflict(failure.CodeNoAvailability, "property has no availability windows")
	}
	if d, uncovered := index.FirstUncovered(r); uncovered {
		return failure.Conflict(failure.CodeDateNotCovered, "%s is not covered by any availability window", d.Format(time.DateOnly)).WithDate(d)
	}
	return nil
}
