package dto

import (
	"time"

	domainbooking "babiloc/internal/domain/booking"
	"babiloc/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency}
}

type TransitionDTO struct {
	From   string    `json:"from"`
	To     string    `json:"to"`
	At     time.Time `json:"at"`
	Actor  string    `json:"actor"`
	Reason string    `json:"reason,omitempty"`
}

type Reservation struct {
	ID          string          `json:"reservation_id"`
	PropertyID  string          `json:"property_id"`
	RenterID    string          `json:"renter_id"`
	OwnerID     string          `json:"owner_id"`
	DateStart   string          `json:"date_start"`
	DateEnd     string          `json:"date_end"`
	Nights      int             `json:"nights"`
	TariffKind  string          `json:"tariff_kind"`
	PromoCode   string          `json:"promo_code,omitempty"`
	Status      string          `json:"status"`
	GrossPrice  MoneyDTO        `json:"gross_price"`
	Commission  MoneyDTO        `json:"commission"`
	OwnerNet    MoneyDTO        `json:"owner_net"`
	ConfirmedAt *time.Time      `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	History     []TransitionDTO `json:"history,omitempty"`
}

type ReservationCollection struct {
	Items []Reservation `json:"items"`
}

// StatusResult answers every state transition.
type StatusResult struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

// MapReservation builds the DTO; history is included only when withHistory is set.
func MapReservation(r *domainbooking.Reservation, withHistory bool) Reservation {
	if r == nil {
		return Reservation{}
	}
	out := Reservation{
		ID:          string(r.ID),
		PropertyID:  string(r.PropertyID),
		RenterID:    string(r.RenterID),
		OwnerID:     string(r.OwnerID),
		DateStart:   r.Range.Start.Format(time.DateOnly),
		DateEnd:     r.Range.End.Format(time.DateOnly),
		Nights:      r.Range.Nights(),
		TariffKind:  string(r.Kind),
		PromoCode:   r.PromoCode,
		Status:      string(r.Status),
		GrossPrice:  MapMoney(r.Gross),
		Commission:  MapMoney(r.Commission),
		OwnerNet:    MapMoney(r.OwnerNet),
		ConfirmedAt: r.ConfirmedAt,
		CreatedAt:   r.CreatedAt,
	}
	if withHistory {
		for _, h := range r.History {
			out.History = append(out.History, TransitionDTO{From: string(h.From), To: string(h.To), At: h.At, Actor: string(h.Actor), Reason: h.Reason})
		}
	}
	return out
}

func MapReservations(items []*domainbooking.Reservation) ReservationCollection {
	out := ReservationCollection{Items: make([]Reservation, 0, len(items))}
	for _, r := range items {
		out.Items = append(out.Items, MapReservation(r, false))
	}
	return out
}
