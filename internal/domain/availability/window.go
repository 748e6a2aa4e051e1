package availability

import (
	"context"
	"errors"
	"time"

	"babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/daterange"
	"babiloc/internal/domain/shared/events"
)

var (
	ErrInvalidWeekday  = errors.New("availability: weekday must be between 0 (Monday) and 6 (Sunday)")
	ErrInvalidValidity = errors.New("availability: valid_from must not be after valid_to")
	ErrWindowNotFound  = errors.New("availability: window not found")
)

type WindowID string

// WeekdayFromNumber maps the external weekday numbering (0 = Monday .. 6 = Sunday) onto time.Weekday.
func WeekdayFromNumber(n int) time.Weekday {
	return time.Weekday((n + 1) % 7)
}

// WeekdayNumber is the inverse of WeekdayFromNumber.
func WeekdayNumber(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Window is a recurring weekly rule: the property is bookable on Weekday
// for every date within [ValidFrom, ValidTo] (both inclusive).
type Window struct {
	ID         WindowID
	PropertyID property.ID
	Weekday    time.Weekday
	ValidFrom  time.Time
	ValidTo    time.Time
	CreatedAt  time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id WindowID) (*Window, error)
	ListByProperty(ctx context.Context, propertyID property.ID) ([]*Window, error)
	Save(ctx context.Context, w *Window) error
	Delete(ctx context.Context, w *Window) error
}

type WindowParams struct {
	ID         WindowID
	PropertyID property.ID
	// Weekday uses 0 = Monday .. 6 = Sunday.
	Weekday    int
	ValidFrom  time.Time
	ValidTo    time.Time
	CreatedAt  time.Time
}

func NewWindow(params WindowParams) (*Window, error) {
	if params.Weekday < 0 || params.Weekday > 6 {
		return nil, ErrInvalidWeekday
	}
	from := daterange.Day(params.ValidFrom)
	to := daterange.Day(params.ValidTo)
	if params.ValidFrom.IsZero() || params.ValidTo.IsZero() || from.After(to) {
		return nil, ErrInvalidValidity
	}
	w := &Window{
		ID:         params.ID,
		PropertyID: params.PropertyID,
		Weekday:    WeekdayFromNumber(params.Weekday),
		ValidFrom:  from,
		ValidTo:    to,
		CreatedAt:  params.CreatedAt.UTC(),
	}
	w.Record(WindowAdded{WindowID: w.ID, PropertyID: w.PropertyID, Weekday: params.Weekday, At: w.CreatedAt})
	return w, nil
}

// Covers reports whether the rule applies to date.
func (w *Window) Covers(date time.Time) bool {
	d := daterange.Day(date)
	return d.Weekday() == w.Weekday && !d.Before(w.ValidFrom) && !d.After(w.ValidTo)
}

func (w *Window) MarkRemoved(now time.Time) {
	w.Record(WindowRemoved{WindowID: w.ID, PropertyID: w.PropertyID, At: now.UTC()})
}

// Index answers coverage questions for one property's windows.
type Index struct {
	windows []*Window
}

func NewIndex(windows []*Window) Index {
	return Index{windows: windows}
}

// Defined is false when the property has no windows at all.
func (ix Index) Defined() bool {
	return len(ix.windows) > 0
}

func (ix Index) IsCovered(date time.Time) bool {
	for _, w := range ix.windows {
		if w.Covers(date) {
			return true
		}
	}
	return false
}

// FirstUncovered returns the earliest day of r no window covers.
func (ix Index) FirstUncovered(r daterange.DateRange) (time.Time, bool) {
	for _, d := range r.Days() {
		if !ix.IsCovered(d) {
			return d, true
		}
	}
	return time.Time{}, false
}
