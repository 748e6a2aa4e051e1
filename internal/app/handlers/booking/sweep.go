package booking

import (
	"context"
	"log/slog"
	"time"

	"babiloc/internal/app/commands"
	handlersupport "babiloc/internal/app/handlers/support"
	"babiloc/internal/app/outbox"
	"babiloc/internal/app/uow"
	domainbooking "babiloc/internal/domain/booking"
	"babiloc/internal/domain/user"
)

const advanceReservationsKey = "booking.advance"

// AdvanceReservationsCommand runs the date-driven sweep. A zero At means "now".
type AdvanceReservationsCommand struct {
	At time.Time
}

func (c AdvanceReservationsCommand) Key() string           { return advanceReservationsKey }
func (c AdvanceReservationsCommand) Principal() user.Actor { return user.SystemActor }

type SweepResult struct {
	Scanned   int `json:"scanned"`
	Started   int `json:"started"`
	Completed int `json:"completed"`
}

// SweepHandler moves confirmed reservations to in_progress and in-progress ones to completed.
// Re-running it at the same instant is a no-op.
type SweepHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *SweepHandler) Handle(ctx context.Context, cmd AdvanceReservationsCommand) (*SweepResult, error) {
	now := cmd.At.UTC()
	if cmd.At.IsZero() {
		now = handlersupport.Clock(h.Now)
	}
	unit, ctx, tx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer tx.Close(ctx)

	due, err := unit.Reservations().ListDue(ctx, now)
	if err != nil {
		return nil, err
	}
	res := &SweepResult{Scanned: len(due)}
	for _, r := range due {
		before := r.Status
		if !r.Advance(now) {
			continue
		}
		if before == domainbooking.StatusConfirmed {
			res.Started++
		}
		if r.Status == domainbooking.StatusCompleted {
			res.Completed++
		}
		if err := unit.Reservations().Save(ctx, r); err != nil {
			return nil, err
		}
		if err := outbox.Drain(ctx, h.Outbox, h.Encoder, r); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	if h.Logger != nil && (res.Started > 0 || res.Completed > 0) {
		h.Logger.Info("reservation sweep applied", "scanned", res.Scanned, "started", res.Started, "completed", res.Completed)
	}
	return res, nil
}

var _ commands.Handler[AdvanceReservationsCommand, *SweepResult] = (*SweepHandler)(nil)
