package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"babiloc/internal/infra/config"
	"babiloc/internal/infra/obs"
)

type PropertyHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Verify(c *gin.Context)
}

type AvailabilityHTTP interface {
	List(c *gin.Context)
	Add(c *gin.Context)
	Remove(c *gin.Context)
}

type PricingHTTP interface {
	ListTariffs(c *gin.Context)
	SetTariff(c *gin.Context)
	Quote(c *gin.Context)
	CreatePromo(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Confirm(c *gin.Context)
	Cancel(c *gin.Context)
	Complete(c *gin.Context)
	ListMine(c *gin.Context)
	ListOwner(c *gin.Context)
}

type ReviewHTTP interface {
	Submit(c *gin.Context)
	Reply(c *gin.Context)
	List(c *gin.Context)
	Eligibility(c *gin.Context)
}

type Handlers struct {
	Property       PropertyHTTP
	Availability   AvailabilityHTTP
	Pricing        PricingHTTP
	Booking        BookingHTTP
	Review         ReviewHTTP
	AuthMiddleware gin.HandlerFunc
	// BookingLimiter throttles reservation creation per caller; nil disables it.
	BookingLimiter gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine without binding a listener.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Property != nil {
		api.POST("/properties", h.Property.Create)
		api.GET("/properties/:id", h.Property.Get)
		api.POST("/properties/:id/verify", h.Property.Verify)
	}
	if h.Availability != nil {
		api.GET("/properties/:id/windows", h.Availability.List)
		api.POST("/properties/:id/windows", h.Availability.Add)
		api.DELETE("/properties/:id/windows/:windowID", h.Availability.Remove)
	}
	if h.Pricing != nil {
		api.GET("/properties/:id/tariffs", h.Pricing.ListTariffs)
		api.PUT("/properties/:id/tariffs/:kind", h.Pricing.SetTariff)
		api.GET("/properties/:id/quote", h.Pricing.Quote)
		api.POST("/promos", h.Pricing.CreatePromo)
	}
	if h.Booking != nil {
		create := []gin.HandlerFunc{h.Booking.Create}
		if h.BookingLimiter != nil {
			create = append([]gin.HandlerFunc{h.BookingLimiter}, create...)
		}
		api.POST("/reservations", create...)
		api.GET("/reservations/:id", h.Booking.Get)
		api.POST("/reservations/:id/confirm", h.Booking.Confirm)
		api.POST("/reservations/:id/cancel", h.Booking.Cancel)
		api.POST("/reservations/:id/complete", h.Booking.Complete)
		api.GET("/me/reservations", h.Booking.ListMine)
		api.GET("/owner/reservations", h.Booking.ListOwner)
	}
	if h.Review != nil {
		api.GET("/properties/:id/reviews", h.Review.List)
		api.POST("/properties/:id/reviews", h.Review.Submit)
		api.GET("/properties/:id/reviews/eligibility", h.Review.Eligibility)
		api.POST("/reviews/:id/reply", h.Review.Reply)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", userIDHeader, userRoleHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
