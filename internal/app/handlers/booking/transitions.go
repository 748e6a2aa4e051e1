package booking

import (
	"context"
	"log/slog"
	"time"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/dto"
	handlersupport "babiloc/internal/app/handlers/support"
	"babiloc/internal/app/outbox"
	"babiloc/internal/app/uow"
	domainbooking "babiloc/internal/domain/booking"
	"babiloc/internal/domain/user"
)

const (
	confirmReservationKey  = "booking.confirm"
	cancelReservationKey   = "booking.cancel"
	completeReservationKey = "booking.complete"
)

type ConfirmReservationCommand struct {
	Actor         user.Actor
	ReservationID string `validate:"required"`
}

func (c ConfirmReservationCommand) Key() string           { return confirmReservationKey }
func (c ConfirmReservationCommand) Principal() user.Actor { return c.Actor }

type CancelReservationCommand struct {
	Actor         user.Actor
	ReservationID string `validate:"required"`
	Reason        string `validate:"max=500"`
}

func (c CancelReservationCommand) Key() string           { return cancelReservationKey }
func (c CancelReservationCommand) Principal() user.Actor { return c.Actor }

// CompleteReservationCommand closes an in-progress stay ahead of the sweep.
type CompleteReservationCommand struct {
	Actor         user.Actor
	ReservationID string `validate:"required"`
}

func (c CompleteReservationCommand) Key() string           { return completeReservationKey }
func (c CompleteReservationCommand) Principal() user.Actor { return c.Actor }

// TransitionHandler applies explicit, actor-driven lifecycle transitions.
type TransitionHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *TransitionHandler) Confirm() commands.Handler[ConfirmReservationCommand, *dto.StatusResult] {
	return commands.HandlerFunc[ConfirmReservationCommand, *dto.StatusResult](func(ctx context.Context, cmd ConfirmReservationCommand) (*dto.StatusResult, error) {
		return h.apply(ctx, cmd.ReservationID, cmd.Actor, func(r *domainbooking.Reservation, now time.Time) error {
			return r.Confirm(cmd.Actor, now)
		})
	})
}

func (h *TransitionHandler) Cancel() commands.Handler[CancelReservationCommand, *dto.StatusResult] {
	return commands.HandlerFunc[CancelReservationCommand, *dto.StatusResult](func(ctx context.Context, cmd CancelReservationCommand) (*dto.StatusResult, error) {
		return h.apply(ctx, cmd.ReservationID, cmd.Actor, func(r *domainbooking.Reservation, now time.Time) error {
			return r.Cancel(cmd.Actor, cmd.Reason, now)
		})
	})
}

func (h *TransitionHandler) Complete() commands.Handler[CompleteReservationCommand, *dto.StatusResult] {
	return commands.HandlerFunc[CompleteReservationCommand, *dto.StatusResult](func(ctx context.Context, cmd CompleteReservationCommand) (*dto.StatusResult, error) {
		return h.apply(ctx, cmd.ReservationID, cmd.Actor, func(r *domainbooking.Reservation, now time.Time) error {
			return r.Complete(cmd.Actor, now)
		})
	})
}

func (h *TransitionHandler) apply(ctx context.Context, id string, actor user.Actor, step func(*domainbooking.Reservation, time.Time) error) (*dto.StatusResult, error) {
	unit, ctx, tx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer tx.Close(ctx)

	reservation, err := unit.Reservations().ByID(ctx, domainbooking.ReservationID(id))
	if err != nil {
		return nil, handlersupport.NotFound(err, domainbooking.ErrNotFound, "reservation %s not found", id)
	}
	from := reservation.Status
	if err := step(reservation, handlersupport.Clock(h.Now)); err != nil {
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
		h.Logger.Info("reservation status changed",
			"reservation_id", reservation.ID,
			"from", from,
			"to", reservation.Status,
			"actor", actor.ID,
		)
	}
	return &dto.StatusResult{ReservationID: string(reservation.ID), Status: string(reservation.Status)}, nil
}
