package pricing

import (
	"context"
	"errors"
	"strings"
	"time"

	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/shared/money"
)

var (
	ErrPromoNotFound     = errors.New("pricing: promo code not found")
	ErrPromoCodeRequired = errors.New("pricing: promo code is required")
	ErrPromoValue        = errors.New("pricing: promo value must be positive (percent at most 100)")
	ErrPromoKind         = errors.New("pricing: promo kind must be percent or fixed")
)

type PromoKind string

const (
	PromoPercent PromoKind = "percent"
	PromoFixed   PromoKind = "fixed"
)

// CodePromo is a promotional code from the read-only promo registry.
// Threshold is the minimum pre-discount amount required to apply it.
type CodePromo struct {
	Code      string
	Kind      PromoKind
	Value     int64
	Currency  string
	Threshold int64
	ExpiresAt time.Time
	Active    bool
	CreatedAt time.Time
}

type PromoRepository interface {
	ByCode(ctx context.Context, code string) (*CodePromo, error)
	Save(ctx context.Context, promo *CodePromo) error
}

// NormalizeCode makes lookups case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type PromoParams struct {
	Code      string
	Kind      string
	Value     int64
	Currency  string
	Threshold int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

func NewPromo(params PromoParams) (*CodePromo, error) {
	code := NormalizeCode(params.Code)
	if code == "" {
		return nil, ErrPromoCodeRequired
	}
	kind := PromoKind(strings.ToLower(strings.TrimSpace(params.Kind)))
	if kind != PromoPercent && kind != PromoFixed {
		return nil, ErrPromoKind
	}
	if params.Value <= 0 || (kind == PromoPercent && params.Value > 100) {
		return nil, ErrPromoValue
	}
	currency := strings.ToUpper(params.Currency)
	if currency == "" {
		currency = money.DefaultCurrency
	}
	return &CodePromo{
		Code:      code,
		Kind:      kind,
		Value:     params.Value,
		Currency:  currency,
		Threshold: params.Threshold,
		ExpiresAt: params.ExpiresAt.UTC(),
		Active:    true,
		CreatedAt: params.CreatedAt.UTC(),
	}, nil
}

// Apply returns the discount for base, or a pricing failure when the code cannot be used.
func (p *CodePromo) Apply(base money.Money, now time.Time) (money.Money, error) {
	if p == nil || !p.Active {
		return money.Money{}, failure.Pricing(failure.CodePromoInvalid, "promo code is not valid")
	}
	if !p.ExpiresAt.IsZero() && !now.UTC().Before(p.ExpiresAt) {
		return money.Money{}, failure.Pricing(failure.CodePromoExpired, "promo code %s expired on %s", p.Code, p.ExpiresAt.Format(time.DateOnly))
	}
	if base.Amount < p.Threshold {
		return money.Money{}, failure.Pricing(failure.CodePromoThreshold, "promo code %s requires a minimum of %d %s", p.Code, p.Threshold, base.Currency)
	}
	var discount money.Money
	switch p.Kind {
	case PromoPercent:
		discount = base.Percent(p.Value)
	case PromoFixed:
		if p.Currency != "" && p.Currency != base.Currency {
			return money.Money{}, failure.Pricing(failure.CodePromoInvalid, "promo code %s is not valid for %s", p.Code, base.Currency)
		}
		discount = money.Money{Amount: p.Value, Currency: base.Currency}
	default:
		return money.Money{}, failure.Pricing(failure.CodePromoInvalid, "promo code %s has unknown kind", p.Code)
	}
	if discount.Amount > base.Amount {
		discount.Amount = base.Amount
	}
	return discount, nil
}
