package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/dto"
	propertiesapp "babiloc/internal/app/handlers/properties"
	"babiloc/internal/app/queries"
)

type PropertyHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createPropertyRequest struct {
	Title       string `json:"title"`
	City        string `json:"city"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func (h PropertyHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req createPropertyRequest
	if !bindJSON(c, &req, false) {
		return
	}
	prop, err := commands.Dispatch[propertiesapp.CreatePropertyCommand, dto.Property](c.Request.Context(), h.Commands, propertiesapp.CreatePropertyCommand{
		Actor:       actor,
		Title:       req.Title,
		City:        req.City,
		Address:     req.Address,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, prop)
}

func (h PropertyHandler) Get(c *gin.Context) {
	prop, err := queries.Ask[propertiesapp.GetPropertyQuery, dto.Property](c.Request.Context(), h.Queries, propertiesapp.GetPropertyQuery{PropertyID: c.Param("id")})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, prop)
}

func (h PropertyHandler) Verify(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	prop, err := commands.Dispatch[propertiesapp.VerifyPropertyCommand, dto.Property](c.Request.Context(), h.Commands, propertiesapp.VerifyPropertyCommand{
		Actor:      actor,
		PropertyID: c.Param("id"),
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, prop)
}

var _ PropertyHTTP = PropertyHandler{}
