package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/dto"
	availabilityapp "babiloc/internal/app/handlers/availability"
	"babiloc/internal/app/queries"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type addWindowRequest struct {
	Weekday   *int   `json:"weekday"`
	ValidFrom string `json:"valid_from"`
	ValidTo   string `json:"valid_to"`
}

func (h AvailabilityHandler) List(c *gin.Context) {
	result, err := queries.Ask[availabilityapp.ListWindowsQuery, dto.WindowCollection](c.Request.Context(), h.Queries, availabilityapp.ListWindowsQuery{PropertyID: c.Param("id")})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Add(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req addWindowRequest
	if !bindJSON(c, &req, false) {
		return
	}
	if req.Weekday == nil {
		badRequest(c, "weekday is required")
		return
	}
	from, msg := parseDay("valid_from", req.ValidFrom)
	if msg != "" {
		badRequest(c, msg)
		return
	}
	to, msg := parseDay("valid_to", req.ValidTo)
	if msg != "" {
		badRequest(c, msg)
		return
	}
	window, err := commands.Dispatch[availabilityapp.AddWindowCommand, dto.Window](c.Request.Context(), h.Commands, availabilityapp.AddWindowCommand{
		Actor:      actor,
		PropertyID: c.Param("id"),
		Weekday:    *req.Weekday,
		ValidFrom:  from,
		ValidTo:    to,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, window)
}

func (h AvailabilityHandler) Remove(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	window, err := commands.Dispatch[availabilityapp.RemoveWindowCommand, dto.Window](c.Request.Context(), h.Commands, availabilityapp.RemoveWindowCommand{
		Actor:      actor,
		PropertyID: c.Param("id"),
		WindowID:   c.Param("windowID"),
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, window)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
