package booking

import (
	"time"

	"babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/daterange"
	"babiloc/internal/domain/shared/money"
	"babiloc/internal/domain/user"
)

type ReservationCreated struct {
	ReservationID ReservationID
	PropertyID    property.ID
	RenterID      user.ID
	OwnerID       user.ID
	Range         daterange.DateRange
	Gross         money.Money
	Commission    money.Money
	OwnerNet      money.Money
	At            time.Time
}

func (e ReservationCreated) EventName() string     { return "reservation.created" }
func (e ReservationCreated) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationCreated) OccurredAt() time.Time { return e.At }

type ReservationStatusChanged struct {
	ReservationID ReservationID
	PropertyID    property.ID
	RenterID      user.ID
	OwnerID       user.ID
	From          Status
	To            Status
	Actor         user.ID
	Reason        string
	At            time.Time
}

func (e ReservationStatusChanged) EventName() string     { return "reservation.status_changed" }
func (e ReservationStatusChanged) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationStatusChanged) OccurredAt() time.Time { return e.At }
