package pricing

import (
	"context"
	"errors"
	"strings"
	"time"

	"babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/events"
	"babiloc/internal/domain/shared/money"
)

var (
	ErrTariffNotFound = errors.New("pricing: tariff not found")
	ErrUnknownKind    = errors.New("pricing: unknown tariff kind")
)

// Kind is the billing unit a tariff is priced in.
type Kind string

const (
	KindDaily   Kind = "DAILY"
	KindWeekly  Kind = "WEEKLY"
	KindMonthly Kind = "MONTHLY"
)

var Kinds = []Kind{KindDaily, KindWeekly, KindMonthly}

func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(raw)))
	switch k {
	case KindDaily, KindWeekly, KindMonthly:
		return k, nil
	}
	return "", ErrUnknownKind
}

// Days is the length of one billing unit.
func (k Kind) Days() int {
	switch k {
	case KindWeekly:
		return 7
	case KindMonthly:
		return 30
	default:
		return 1
	}
}

// Units returns ceil(nights / unit length).
func (k Kind) Units(nights int) int64 {
	if nights <= 0 {
		return 0
	}
	d := k.Days()
	return int64((nights + d - 1) / d)
}

type Tariff struct {
	PropertyID property.ID
	Kind       Kind
	Price      money.Money
	Derived    bool
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

type TariffRepository interface {
	// Get returns ErrTariffNotFound when no tariff of that kind exists.
	Get(ctx context.Context, propertyID property.ID, kind Kind) (*Tariff, error)
	ListByProperty(ctx context.Context, propertyID property.ID) ([]*Tariff, error)
	Save(ctx context.Context, t *Tariff) error
}

type TariffSet struct {
	PropertyID property.ID
	Kind       Kind
	Price      money.Money
	Derived    bool
	At         time.Time
}

func (e TariffSet) EventName() string     { return "pricing.tariff_set" }
func (e TariffSet) AggregateID() string   { return string(e.PropertyID) }
func (e TariffSet) OccurredAt() time.Time { return e.At }
