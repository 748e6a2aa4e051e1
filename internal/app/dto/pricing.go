package dto

import (
	"time"

	domaincommission "babiloc/internal/domain/commission"
	domainpricing "babiloc/internal/domain/pricing"
)

type Tariff struct {
	Kind      string    `json:"kind"`
	Price     MoneyDTO  `json:"price"`
	Derived   bool      `json:"derived"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TariffCollection struct {
	PropertyID string   `json:"property_id"`
	Items      []Tariff `json:"items"`
}

func MapTariffs(propertyID string, items []*domainpricing.Tariff) TariffCollection {
	out := TariffCollection{PropertyID: propertyID, Items: make([]Tariff, 0, len(items))}
	for _, t := range items {
		out.Items = append(out.Items, Tariff{Kind: string(t.Kind), Price: MapMoney(t.Price), Derived: t.Derived, UpdatedAt: t.UpdatedAt})
	}
	return out
}

type Quote struct {
	PropertyID string   `json:"property_id"`
	TariffKind string   `json:"tariff_kind"`
	Nights     int      `json:"nights"`
	Units      int64    `json:"units"`
	UnitPrice  MoneyDTO `json:"unit_price"`
	BasePrice  MoneyDTO `json:"base_price"`
	Discount   MoneyDTO `json:"discount"`
	GrossPrice MoneyDTO `json:"gross_price"`
	Commission MoneyDTO `json:"commission"`
	OwnerNet   MoneyDTO `json:"owner_net"`
	PromoCode  string   `json:"promo_code,omitempty"`
}

func MapQuote(propertyID string, q domainpricing.Quote) Quote {
	split := domaincommission.Calculate(q.Gross)
	return Quote{
		PropertyID: propertyID,
		TariffKind: string(q.Kind),
		Nights:     q.Nights,
		Units:      q.Units,
		UnitPrice:  MapMoney(q.UnitPrice),
		BasePrice:  MapMoney(q.Base),
		Discount:   MapMoney(q.Discount),
		GrossPrice: MapMoney(split.Gross),
		Commission: MapMoney(split.Commission),
		OwnerNet:   MapMoney(split.OwnerNet),
		PromoCode:  q.PromoCode,
	}
}

type Promo struct {
	Code      string     `json:"code"`
	Kind      string     `json:"kind"`
	Value     int64      `json:"value"`
	Currency  string     `json:"currency"`
	Threshold int64      `json:"threshold"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Active    bool       `json:"active"`
}

func MapPromo(p *domainpricing.CodePromo) Promo {
	out := Promo{Code: p.Code, Kind: string(p.Kind), Value: p.Value, Currency: p.Currency, Threshold: p.Threshold, Active: p.Active}
	if !p.ExpiresAt.IsZero() {
		at := p.ExpiresAt
		out.ExpiresAt = &at
	}
	return out
}
