package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/dto"
	handlersupport "babiloc/internal/app/handlers/support"
	"babiloc/internal/app/middleware"
	"babiloc/internal/app/outbox"
	"babiloc/internal/app/uow"
	domainbooking "babiloc/internal/domain/booking"
	domainpricing "babiloc/internal/domain/pricing"
	domainproperty "babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/user"
)

const createReservationKey = "booking.create"

type CreateReservationCommand struct {
	Actor           user.Actor
	PropertyID      string    `validate:"required"`
	DateStart       time.Time `validate:"required"`
	DateEnd         time.Time `validate:"required"`
	TariffKind      string    `validate:"required"`
	PromoCode       string    `validate:"omitempty,max=64"`
	IdempotencyKeyV string
}

func (c CreateReservationCommand) Key() string           { return createReservationKey }
func (c CreateReservationCommand) Principal() user.Actor { return c.Actor }
func (c CreateReservationCommand) ConflictCode() string  { return failure.CodeConcurrentBooking }
func (c CreateReservationCommand) ResultPrototype() any  { return &dto.Reservation{} }

// IdempotencyKey is scoped to the renter so two users cannot collide on a client key.
func (c CreateReservationCommand) IdempotencyKey() string {
	if c.IdempotencyKeyV == "" {
		return ""
	}
	return createReservationKey + ":" + string(c.Actor.ID) + ":" + c.IdempotencyKeyV
}

// CreateReservationHandler checks the candidate dates, prices them and stores a pending reservation,
// all inside one unit of work holding the property's booking lock.
type CreateReservationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	NewID      func() string
	Logger     *slog.Logger
}

func (h *CreateReservationHandler) Handle(ctx context.Context, cmd CreateReservationCommand) (*dto.Reservation, error) {
	kind, err := domainpricing.ParseKind(cmd.TariffKind)
	if err != nil {
		return nil, failure.Validation(failure.CodeInvalidInput, "tariff_kind must be one of DAILY, WEEKLY, MONTHLY")
	}
	unit, ctx, tx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer tx.Close(ctx)

	propertyID := domainproperty.ID(cmd.PropertyID)
	prop, err := unit.Properties().ByID(ctx, propertyID)
	if err != nil {
		return nil, handlersupport.NotFound(err, domainproperty.ErrNotFound, "property %s not found", cmd.PropertyID)
	}
	if err := unit.Reservations().LockProperty(ctx, propertyID); err != nil {
		return nil, err
	}

	now := handlersupport.Clock(h.Now)
	detector := domainbooking.ConflictDetector{
		Tariffs:      unit.Tariffs(),
		Windows:      unit.Availability(),
		Reservations: unit.Reservations(),
	}
	dr, err := detector.CanBook(ctx, domainbooking.Candidate{
		PropertyID: propertyID,
		Start:      cmd.DateStart,
		End:        cmd.DateEnd,
		Kind:       kind,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}

	engine := domainpricing.Engine{Tariffs: unit.Tariffs(), Promos: unit.Promos(), Now: h.Now}
	quote, err := engine.PriceFor(ctx, propertyID, kind, dr, cmd.PromoCode)
	if err != nil {
		return nil, err
	}

	reservation, err := domainbooking.NewReservation(domainbooking.CreateParams{
		ID:         domainbooking.ReservationID(h.newID()),
		PropertyID: prop.ID,
		RenterID:   cmd.Actor.ID,
		OwnerID:    prop.OwnerID,
		Range:      dr,
		Quote:      quote,
		CreatedAt:  now,
	})
	if err != nil {
		if errors.Is(err, domainbooking.ErrRenterMissing) {
			return nil, failure.Validation(failure.CodeInvalidInput, "renter is required")
		}
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, reservation); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, reservation); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("reservation created",
			"reservation_id", reservation.ID,
			"property_id", reservation.PropertyID,
			"renter_id", reservation.RenterID,
			"gross", reservation.Gross.Amount,
		)
	}
	out := dto.MapReservation(reservation, false)
	return &out, nil
}

func (h *CreateReservationHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

var _ commands.Handler[CreateReservationCommand, *dto.Reservation] = (*CreateReservationHandler)(nil)
var _ middleware.IdempotentCommand = CreateReservationCommand{}
