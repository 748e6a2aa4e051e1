package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/dto"
	pricingapp "babiloc/internal/app/handlers/pricing"
	"babiloc/internal/app/queries"
)

type PricingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type setTariffRequest struct {
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
}

type createPromoRequest struct {
	Code      string     `json:"code"`
	Kind      string     `json:"kind"`
	Value     int64      `json:"value"`
	Currency  string     `json:"currency"`
	Threshold int64      `json:"threshold"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h PricingHandler) ListTariffs(c *gin.Context) {
	result, err := queries.Ask[pricingapp.ListTariffsQuery, dto.TariffCollection](c.Request.Context(), h.Queries, pricingapp.ListTariffsQuery{PropertyID: c.Param("id")})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PricingHandler) SetTariff(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req setTariffRequest
	if !bindJSON(c, &req, false) {
		return
	}
	result, err := commands.Dispatch[pricingapp.SetTariffCommand, dto.TariffCollection](c.Request.Context(), h.Commands, pricingapp.SetTariffCommand{
		Actor:      actor,
		PropertyID: c.Param("id"),
		Kind:       c.Param("kind"),
		Price:      req.Price,
		Currency:   req.Currency,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Quote previews a stay: GET /properties/:id/quote?date_start=&date_end=&tariff_kind=&promo_code=
func (h PricingHandler) Quote(c *gin.Context) {
	start, msg := parseDay("date_start", c.Query("date_start"))
	if msg != "" {
		badRequest(c, msg)
		return
	}
	end, msg := parseDay("date_end", c.Query("date_end"))
	if msg != "" {
		badRequest(c, msg)
		return
	}
	kind := c.DefaultQuery("tariff_kind", "DAILY")
	result, err := queries.Ask[pricingapp.QuoteQuery, dto.Quote](c.Request.Context(), h.Queries, pricingapp.QuoteQuery{
		PropertyID: c.Param("id"),
		DateStart:  start,
		DateEnd:    end,
		TariffKind: kind,
		PromoCode:  c.Query("promo_code"),
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PricingHandler) CreatePromo(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req createPromoRequest
	if !bindJSON(c, &req, false) {
		return
	}
	cmd := pricingapp.CreatePromoCommand{
		Actor:     actor,
		Code:      req.Code,
		Kind:      req.Kind,
		Value:     req.Value,
		Currency:  req.Currency,
		Threshold: req.Threshold,
	}
	if req.ExpiresAt != nil {
		cmd.ExpiresAt = req.ExpiresAt.UTC()
	}
	promo, err := commands.Dispatch[pricingapp.CreatePromoCommand, dto.Promo](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, promo)
}

var _ PricingHTTP = PricingHandler{}
