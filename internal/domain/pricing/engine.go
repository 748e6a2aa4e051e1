package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/daterange"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/shared/money"
)

// Tier discounts applied to the daily base rate, in percent of the undiscounted price.
const (
	WeeklyRatePercent  int64 = 85
	MonthlyRatePercent int64 = 70
)

// Engine owns tariff writes, tier derivation and booking prices for a property.
type Engine struct {
	Tariffs TariffRepository
	Promos  PromoRepository
	Guard   Guard
	Now     func() time.Time
}

// Quote is the price of a date range under one tariff kind.
type Quote struct {
	Kind      Kind
	Nights    int
	Units     int64
	UnitPrice money.Money
	Base      money.Money
	Discount  money.Money
	Gross     money.Money
	PromoCode string
}

// SetTariff writes a tariff and then runs derivation for the property.
func (e *Engine) SetTariff(ctx context.Context, propertyID property.ID, kind Kind, price money.Money) (*Tariff, error) {
	return e.setTariff(ctx, propertyID, kind, price, false)
}

func (e *Engine) setTariff(ctx context.Context, propertyID property.ID, kind Kind, price money.Money, derived bool) (*Tariff, error) {
	if price.Amount <= 0 {
		return nil, failure.Validation(failure.CodeInvalidPrice, "tariff price must be greater than zero")
	}
	t, err := e.Tariffs.Get(ctx, propertyID, kind)
	switch {
	case errors.Is(err, ErrTariffNotFound):
		t = &Tariff{PropertyID: propertyID, Kind: kind}
	case err != nil:
		return nil, err
	}
	now := e.now()
	t.Price = price
	t.Derived = derived
	t.UpdatedAt = now
	t.Record(TariffSet{PropertyID: propertyID, Kind: kind, Price: price, Derived: derived, At: now})
	if err := e.Tariffs.Save(ctx, t); err != nil {
		return nil, err
	}
	if err := e.DeriveTieredPrices(ctx, propertyID); err != nil {
		return nil, err
	}
	return t, nil
}

// DeriveTieredPrices fills missing or zero WEEKLY and MONTHLY tariffs from DAILY.
// Re-entrant calls for a property already being derived return immediately.
func (e *Engine) DeriveTieredPrices(ctx context.Context, propertyID property.ID) error {
	guard := e.Guard
	if guard == nil {
		guard = processGuard
	}
	release, ok, err := guard.Acquire(ctx, derivationKey(string(propertyID)))
	if err != nil {
		return fmt.Errorf("pricing: acquire derivation guard: %w", err)
	}
	if !ok {
		return nil
	}
	defer release()

	daily, err := e.Tariffs.Get(ctx, propertyID, KindDaily)
	if errors.Is(err, ErrTariffNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if daily.Price.Amount <= 0 {
		return nil
	}
	for _, tier := range []struct {
		kind Kind
		pct  int64
	}{
		{KindWeekly, WeeklyRatePercent},
		{KindMonthly, MonthlyRatePercent},
	} {
		existing, err := e.Tariffs.Get(ctx, propertyID, tier.kind)
		if err != nil && !errors.Is(err, ErrTariffNotFound) {
			return err
		}
		if existing != nil && existing.Price.Amount != 0 {
			continue
		}
		price := daily.Price.Multiply(int64(tier.kind.Days())).Percent(tier.pct)
		if _, err := e.setTariff(ctx, propertyID, tier.kind, price, true); err != nil {
			return err
		}
	}
	return nil
}

// PriceFor quotes r under the property's tariff of the given kind, applying promoCode when set.
func (e *Engine) PriceFor(ctx context.Context, propertyID property.ID, kind Kind, r daterange.DateRange, promoCode string) (Quote, error) {
	t, err := e.Tariffs.Get(ctx, propertyID, kind)
	if errors.Is(err, ErrTariffNotFound) {
		return Quote{}, failure.Pricing(failure.CodeNoTariff, "property has no %s tariff", kind)
	}
	if err != nil {
		return Quote{}, err
	}
	var promo *CodePromo
	if code := NormalizeCode(promoCode); code != "" {
		if e.Promos == nil {
			return Quote{}, failure.Pricing(failure.CodePromoInvalid, "promo code %s is not valid", code)
		}
		promo, err = e.Promos.ByCode(ctx, code)
		if errors.Is(err, ErrPromoNotFound) {
			return Quote{}, failure.Pricing(failure.CodePromoInvalid, "promo code %s is not valid", code)
		}
		if err != nil {
			return Quote{}, err
		}
	}
	return PriceFor(t, r, promo, e.now())
}

// PriceFor is the pure pricing rule: tariff price * ceil(billing units), minus promo, floored at zero.
func PriceFor(t *Tariff, r daterange.DateRange, promo *CodePromo, now time.Time) (Quote, error) {
	if t == nil || t.Price.Amount <= 0 {
		return Quote{}, failure.Pricing(failure.CodeNoTariff, "tariff is not priced")
	}
	if err := r.Validate(); err != nil {
		return Quote{}, failure.Validation(failure.CodeInvalidRange, "date_start must be before date_end")
	}
	nights := r.Nights()
	units := t.Kind.Units(nights)
	base := t.Price.Multiply(units)
	q := Quote{
		Kind:      t.Kind,
		Nights:    nights,
		Units:     units,
		UnitPrice: t.Price,
		Base:      base,
		Discount:  money.Zero(base.Currency),
		Gross:     base,
	}
	if promo != nil {
		discount, err := promo.Apply(base, now)
		if err != nil {
			return Quote{}, err
		}
		gross, err := base.Sub(discount)
		if err != nil {
			return Quote{}, err
		}
		q.Discount = discount
		q.Gross = gross.FloorZero()
		q.PromoCode = promo.Code
	}
	return q, nil
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}
