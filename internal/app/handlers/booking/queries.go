package booking

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"babiloc/internal/app/dto"
	handlersupport "babiloc/internal/app/handlers/support"
	"babiloc/internal/app/queries"
	"babiloc/internal/app/uow"
	domainbooking "babiloc/internal/domain/booking"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/user"
)

const (
	getReservationKey         = "booking.get"
	listRenterReservationsKey = "booking.list.renter"
	listOwnerReservationsKey  = "booking.list.owner"
	allStatusesFilterValue    = "all"
)

type GetReservationQuery struct {
	Actor         user.Actor
	ReservationID string
}

func (q GetReservationQuery) Key() string           { return getReservationKey }
func (q GetReservationQuery) Principal() user.Actor { return q.Actor }

// ListRenterReservationsQuery lists the caller's own bookings. Status "" or "all" disables filtering.
type ListRenterReservationsQuery struct {
	Actor  user.Actor
	Status string
}

func (q ListRenterReservationsQuery) Key() string           { return listRenterReservationsKey }
func (q ListRenterReservationsQuery) Principal() user.Actor { return q.Actor }

// ListOwnerReservationsQuery lists bookings on the caller's properties. Status defaults to pending.
type ListOwnerReservationsQuery struct {
	Actor  user.Actor
	Status string
}

func (q ListOwnerReservationsQuery) Key() string           { return listOwnerReservationsKey }
func (q ListOwnerReservationsQuery) Principal() user.Actor { return q.Actor }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *QueryHandler) Get() queries.Handler[GetReservationQuery, dto.Reservation] {
	return queries.HandlerFunc[GetReservationQuery, dto.Reservation](func(ctx context.Context, q GetReservationQuery) (dto.Reservation, error) {
		unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.Reservation{}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		r, err := unit.Reservations().ByID(ctx, domainbooking.ReservationID(q.ReservationID))
		if err != nil {
			return dto.Reservation{}, handlersupport.NotFound(err, domainbooking.ErrNotFound, "reservation %s not found", q.ReservationID)
		}
		if !q.Actor.Privileged() && q.Actor.ID != r.RenterID && q.Actor.ID != r.OwnerID {
			return dto.Reservation{}, failure.Permission("reservation %s is not visible to %s", r.ID, q.Actor.ID)
		}
		return dto.MapReservation(r, true), nil
	})
}

func (h *QueryHandler) ListRenter() queries.Handler[ListRenterReservationsQuery, dto.ReservationCollection] {
	return queries.HandlerFunc[ListRenterReservationsQuery, dto.ReservationCollection](func(ctx context.Context, q ListRenterReservationsQuery) (dto.ReservationCollection, error) {
		statuses, err := parseStatusFilter(q.Status, "")
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		items, err := unit.Reservations().ListByRenter(ctx, q.Actor.ID, statuses)
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		sortNewestFirst(items)
		return dto.MapReservations(items), nil
	})
}

func (h *QueryHandler) ListOwner() queries.Handler[ListOwnerReservationsQuery, dto.ReservationCollection] {
	return queries.HandlerFunc[ListOwnerReservationsQuery, dto.ReservationCollection](func(ctx context.Context, q ListOwnerReservationsQuery) (dto.ReservationCollection, error) {
		statuses, err := parseStatusFilter(q.Status, domainbooking.StatusPending)
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		items, err := unit.Reservations().ListByOwner(ctx, q.Actor.ID, statuses)
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		sortNewestFirst(items)
		if h.Logger != nil {
			h.Logger.Debug("owner reservations listed", "owner_id", q.Actor.ID, "count", len(items), "status", q.Status)
		}
		return dto.MapReservations(items), nil
	})
}

func parseStatusFilter(raw string, fallback domainbooking.Status) ([]domainbooking.Status, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		if fallback == "" {
			return nil, nil
		}
		return []domainbooking.Status{fallback}, nil
	}
	if raw == allStatusesFilterValue {
		return nil, nil
	}
	var out []domainbooking.Status
	for _, part := range strings.Split(raw, ",") {
		s, err := domainbooking.ParseStatus(part)
		if err != nil {
			return nil, failure.Validation(failure.CodeInvalidInput, "unknown status %q", part)
		}
		out = append(out, s)
	}
	return out, nil
}

func sortNewestFirst(items []*domainbooking.Reservation) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
