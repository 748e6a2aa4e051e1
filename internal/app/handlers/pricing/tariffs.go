package pricing

import (
	"context"
	"log/slog"
	"time"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/dto"
	handlersupport "babiloc/internal/app/handlers/support"
	"babiloc/internal/app/outbox"
	"babiloc/internal/app/queries"
	"babiloc/internal/app/uow"
	domainpricing "babiloc/internal/domain/pricing"
	domainproperty "babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/shared/money"
	"babiloc/internal/domain/user"
)

const (
	setTariffKey   = "pricing.tariff.set"
	listTariffsKey = "pricing.tariff.list"
)

type SetTariffCommand struct {
	Actor      user.Actor
	PropertyID string `validate:"required"`
	Kind       string `validate:"required"`
	Price      int64
	Currency   string `validate:"omitempty,len=3"`
}

func (c SetTariffCommand) Key() string           { return setTariffKey }
func (c SetTariffCommand) Principal() user.Actor { return c.Actor }

type ListTariffsQuery struct {
	PropertyID string
}

func (q ListTariffsQuery) Key() string { return listTariffsKey }

// SetTariffHandler writes a tariff; every write runs tier derivation behind the guard.
type SetTariffHandler struct {
	UoWFactory      uow.UoWFactory
	Guard           domainpricing.Guard
	Outbox          outbox.Outbox
	Encoder         outbox.EventEncoder
	DefaultCurrency string
	Now             func() time.Time
	Logger          *slog.Logger
}

func (h *SetTariffHandler) Handle(ctx context.Context, cmd SetTariffCommand) (dto.TariffCollection, error) {
	kind, err := domainpricing.ParseKind(cmd.Kind)
	if err != nil {
		return dto.TariffCollection{}, failure.Validation(failure.CodeInvalidInput, "kind must be one of DAILY, WEEKLY, MONTHLY")
	}
	currency := cmd.Currency
	if currency == "" {
		currency = h.DefaultCurrency
	}
	if currency == "" {
		currency = money.DefaultCurrency
	}
	price, err := money.New(cmd.Price, currency)
	if err != nil {
		return dto.TariffCollection{}, failure.Validation(failure.CodeInvalidInput, "currency must be a 3-letter code")
	}

	unit, ctx, tx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.TariffCollection{}, err
	}
	defer tx.Close(ctx)

	propertyID := domainproperty.ID(cmd.PropertyID)
	prop, err := unit.Properties().ByID(ctx, propertyID)
	if err != nil {
		return dto.TariffCollection{}, handlersupport.NotFound(err, domainproperty.ErrNotFound, "property %s not found", cmd.PropertyID)
	}
	if !prop.CanManage(cmd.Actor) {
		return dto.TariffCollection{}, failure.Permission("only the owner or an admin may price property %s", prop.ID)
	}

	tariffs := &recordingTariffs{TariffRepository: unit.Tariffs()}
	engine := domainpricing.Engine{Tariffs: tariffs, Promos: unit.Promos(), Guard: h.Guard, Now: h.Now}
	if _, err := engine.SetTariff(ctx, propertyID, kind, price); err != nil {
		return dto.TariffCollection{}, err
	}
	for _, t := range tariffs.saved {
		if err := outbox.Drain(ctx, h.Outbox, h.Encoder, t); err != nil {
			return dto.TariffCollection{}, err
		}
	}
	all, err := unit.Tariffs().ListByProperty(ctx, propertyID)
	if err != nil {
		return dto.TariffCollection{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return dto.TariffCollection{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("tariff set", "property_id", propertyID, "kind", kind, "price", price.Amount, "writes", len(tariffs.saved))
	}
	return dto.MapTariffs(cmd.PropertyID, all), nil
}

// recordingTariffs remembers saved aggregates so their events reach the outbox.
type recordingTariffs struct {
	domainpricing.TariffRepository
	saved []*domainpricing.Tariff
}

func (r *recordingTariffs) Save(ctx context.Context, t *domainpricing.Tariff) error {
	if err := r.TariffRepository.Save(ctx, t); err != nil {
		return err
	}
	r.saved = append(r.saved, t)
	return nil
}

type ListTariffsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListTariffsHandler) Handle(ctx context.Context, q ListTariffsQuery) (dto.TariffCollection, error) {
	unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.TariffCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	if _, err := unit.Properties().ByID(ctx, domainproperty.ID(q.PropertyID)); err != nil {
		return dto.TariffCollection{}, handlersupport.NotFound(err, domainproperty.ErrNotFound, "property %s not found", q.PropertyID)
	}
	items, err := unit.Tariffs().ListByProperty(ctx, domainproperty.ID(q.PropertyID))
	if err != nil {
		return dto.TariffCollection{}, err
	}
	return dto.MapTariffs(q.PropertyID, items), nil
}

var _ commands.Handler[SetTariffCommand, dto.TariffCollection] = (*SetTariffHandler)(nil)
var _ queries.Handler[ListTariffsQuery, dto.TariffCollection] = (*ListTariffsHandler)(nil)
