package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/dto"
	bookingapp "babiloc/internal/app/handlers/booking"
	"babiloc/internal/app/queries"
)

const idempotencyHeader = "Idempotency-Key"

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createReservationRequest struct {
	PropertyID string `json:"property_id"`
	DateStart  string `json:"date_start"`
	DateEnd    string `json:"date_end"`
	TariffKind string `json:"tariff_kind"`
	PromoCode  string `json:"promo_code"`
}

type cancelReservationRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req createReservationRequest
	if !bindJSON(c, &req, false) {
		return
	}
	start, msg := parseDay("date_start", req.DateStart)
	if msg != "" {
		badRequest(c, msg)
		return
	}
	end, msg := parseDay("date_end", req.DateEnd)
	if msg != "" {
		badRequest(c, msg)
		return
	}
	cmd := bookingapp.CreateReservationCommand{
		Actor:           actor,
		PropertyID:      req.PropertyID,
		DateStart:       start,
		DateEnd:         end,
		TariffKind:      req.TariffKind,
		PromoCode:       req.PromoCode,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[bookingapp.CreateReservationCommand, *dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := queries.Ask[bookingapp.GetReservationQuery, dto.Reservation](c.Request.Context(), h.Queries, bookingapp.GetReservationQuery{
		Actor:         actor,
		ReservationID: c.Param("id"),
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Confirm(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	h.respondStatus(c, func() (*dto.StatusResult, error) {
		return commands.Dispatch[bookingapp.ConfirmReservationCommand, *dto.StatusResult](c.Request.Context(), h.Commands, bookingapp.ConfirmReservationCommand{
			Actor:         actor,
			ReservationID: c.Param("id"),
		})
	})
}

func (h BookingHandler) Cancel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req cancelReservationRequest
	if !bindJSON(c, &req, true) {
		return
	}
	h.respondStatus(c, func() (*dto.StatusResult, error) {
		return commands.Dispatch[bookingapp.CancelReservationCommand, *dto.StatusResult](c.Request.Context(), h.Commands, bookingapp.CancelReservationCommand{
			Actor:         actor,
			ReservationID: c.Param("id"),
			Reason:        req.Reason,
		})
	})
}

func (h BookingHandler) Complete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	h.respondStatus(c, func() (*dto.StatusResult, error) {
		return commands.Dispatch[bookingapp.CompleteReservationCommand, *dto.StatusResult](c.Request.Context(), h.Commands, bookingapp.CompleteReservationCommand{
			Actor:         actor,
			ReservationID: c.Param("id"),
		})
	})
}

func (h BookingHandler) respondStatus(c *gin.Context, run func() (*dto.StatusResult, error)) {
	result, err := run()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := queries.Ask[bookingapp.ListRenterReservationsQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, bookingapp.ListRenterReservationsQuery{
		Actor:  actor,
		Status: c.Query("status"),
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListOwner(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := queries.Ask[bookingapp.ListOwnerReservationsQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, bookingapp.ListOwnerReservationsQuery{
		Actor:  actor,
		Status: c.Query("status"),
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
