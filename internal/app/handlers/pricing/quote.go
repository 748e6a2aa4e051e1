package pricing

import (
	"context"
	"time"

	"babiloc/internal/app/dto"
	handlersupport "babiloc/internal/app/handlers/support"
	"babiloc/internal/app/queries"
	"babiloc/internal/app/uow"
	domainpricing "babiloc/internal/domain/pricing"
	domainproperty "babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/daterange"
	"babiloc/internal/domain/shared/failure"
)

const quoteKey = "pricing.quote"

// QuoteQuery previews the price and commission split of a stay without booking it.
type QuoteQuery struct {
	PropertyID string
	DateStart  time.Time
	DateEnd    time.Time
	TariffKind string
	PromoCode  string
}

func (q QuoteQuery) Key() string { return quoteKey }

type QuoteHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.Quote, error) {
	kind, err := domainpricing.ParseKind(q.TariffKind)
	if err != nil {
		return dto.Quote{}, failure.Validation(failure.CodeInvalidInput, "tariff_kind must be one of DAILY, WEEKLY, MONTHLY")
	}
	dr, err := daterange.New(q.DateStart, q.DateEnd)
	if err != nil {
		return dto.Quote{}, failure.Validation(failure.CodeInvalidRange, "date_start must be before date_end")
	}
	unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	propertyID := domainproperty.ID(q.PropertyID)
	if _, err := unit.Properties().ByID(ctx, propertyID); err != nil {
		return dto.Quote{}, handlersupport.NotFound(err, domainproperty.ErrNotFound, "property %s not found", q.PropertyID)
	}
	engine := domainpricing.Engine{Tariffs: unit.Tariffs(), Promos: unit.Promos(), Now: h.Now}
	quote, err := engine.PriceFor(ctx, propertyID, kind, dr, q.PromoCode)
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(q.PropertyID, quote), nil
}

var _ queries.Handler[QuoteQuery, dto.Quote] = (*QuoteHandler)(nil)
