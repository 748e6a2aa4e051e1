// Package failure defines the error taxonomy returned by the booking engine.
// Every rejection a caller can act on is a *Error with a Kind and a machine Code.
package failure

import (
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindPricing           Kind = "pricing"
	KindInvalidTransition Kind = "invalid_transition"
	KindPermission        Kind = "permission"
	KindEligibility       Kind = "eligibility"
	KindNotFound          Kind = "not_found"
)

// Machine codes surfaced to API callers.
const (
	CodeInvalidRange      = "invalid_range"
	CodeStartInPast       = "start_in_past"
	CodeInvalidInput      = "invalid_input"
	CodeNoTariff          = "no_tariff"
	CodeInvalidPrice      = "invalid_price"
	CodeOverlap           = "overlap"
	CodeNoAvailability    = "no_availability"
	CodeDateNotCovered    = "date_not_covered"
	CodeConcurrentBooking = "concurrent_booking"
	CodeConcurrentUpdate  = "concurrent_update"
	CodePromoInvalid      = "promo_invalid"
	CodePromoExpired      = "promo_expired"
	CodePromoThreshold    = "promo_threshold"
	CodeTransition        = "transition_not_allowed"
	CodeForbidden         = "forbidden"
	CodeAlreadyReviewed   = "already_reviewed"
	CodeSelfReview        = "self_review"
	CodeNoCompletedStay   = "no_completed_stay"
	CodeAlreadyReplied    = "already_replied"
	CodeDuplicate         = "duplicate"
	CodeNotFound          = "not_found"
)

// Error is a local, per-request failure. It never represents an infrastructure fault.
type Error struct {
	Kind          Kind
	Code          string
	Detail        string
	Date          *time.Time
	ReservationID string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Detail)
}

// Is matches kind sentinels (Code == "") by kind and concrete errors by kind and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrPricing           = &Error{Kind: KindPricing}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrPermission        = &Error{Kind: KindPermission}
	ErrEligibility       = &Error{Kind: KindEligibility}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

func Validation(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Detail: fmt.Sprintf(format, args...)}
}

func Conflict(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Detail: fmt.Sprintf(format, args...)}
}

func Pricing(code, format string, args ...any) *Error {
	return &Error{Kind: KindPricing, Code: code, Detail: fmt.Sprintf(format, args...)}
}

func InvalidTransition(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidTransition, Code: CodeTransition, Detail: fmt.Sprintf(format, args...)}
}

func Permission(format string, args ...any) *Error {
	return &Error{Kind: KindPermission, Code: CodeForbidden, Detail: fmt.Sprintf(format, args...)}
}

func Eligibility(code, detail string) *Error {
	return &Error{Kind: KindEligibility, Code: code, Detail: detail}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Detail: fmt.Sprintf(format, args...)}
}

// WithDate attaches the offending calendar date.
func (e *Error) WithDate(d time.Time) *Error {
	d = d.UTC()
	e.Date = &d
	return e
}

// WithReservation attaches the conflicting reservation id.
func (e *Error) WithReservation(id string) *Error {
	e.ReservationID = id
	return e
}

// As extracts a *Error from err's chain.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// KindOf returns the kind of err or "" for non-taxonomy errors.
func KindOf(err error) Kind {
	if fe, ok := As(err); ok {
		return fe.Kind
	}
	return ""
}
