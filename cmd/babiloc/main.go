package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"babiloc/internal/app/application"
	"babiloc/internal/app/middleware"
	appoutbox "babiloc/internal/app/outbox"
	"babiloc/internal/app/uow"
	domainpricing "babiloc/internal/domain/pricing"
	"babiloc/internal/infra/broker/kafka"
	"babiloc/internal/infra/cache"
	"babiloc/internal/infra/config"
	dbmongo "babiloc/internal/infra/db/mongo"
	ginserver "babiloc/internal/infra/http/gin"
	"babiloc/internal/infra/inbox"
	"babiloc/internal/infra/obs"
	infraoutbox "babiloc/internal/infra/outbox"
	"babiloc/internal/infra/payments"
	"babiloc/internal/infra/scheduler"
	"babiloc/internal/infra/storage/memory"
	"babiloc/internal/infra/validation"
)

const serviceName = "babiloc"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	infra, err := buildInfrastructure(ctx, cfg, logger)
	if err != nil {
		logger.Error("infrastructure setup failed", "error", err)
		os.Exit(1)
	}
	defer infra.close(logger)

	app := application.New(application.Deps{
		UoWFactory:      infra.uow,
		Outbox:          infra.outbox,
		Idempotency:     infra.idempotency,
		Guard:           infra.guard,
		Validator:       validation.New(),
		Logger:          logger,
		DefaultCurrency: cfg.Currency,
		Now:             func() time.Time { return time.Now().UTC() },
		NewID:           uuid.NewString,
	})

	var workers sync.WaitGroup

	sweeper := &scheduler.Sweeper{Bus: app.Commands, Logger: logger}
	sweepCron, err := sweeper.Start(cfg.SweepSchedule)
	if err != nil {
		logger.Error("sweep schedule invalid", "schedule", cfg.SweepSchedule, "error", err)
		os.Exit(1)
	}
	defer func() { <-sweepCron.Stop().Done() }()

	if cfg.KafkaEnabled() {
		if err := startMessaging(ctx, cfg, logger, infra, app, &workers); err != nil {
			logger.Error("messaging setup failed", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("kafka disabled, outbox events stay pending and payment events are not consumed")
	}

	limiter := ginserver.NewRateLimiter(cfg.BookingRateLimit, cfg.BookingRateBurst, logger)
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: infra.checks}, ginserver.Handlers{
		Property:       ginserver.PropertyHandler{Commands: app.Commands, Queries: app.Queries, Logger: logger},
		Availability:   ginserver.AvailabilityHandler{Commands: app.Commands, Queries: app.Queries, Logger: logger},
		Pricing:        ginserver.PricingHandler{Commands: app.Commands, Queries: app.Queries, Logger: logger},
		Booking:        ginserver.BookingHandler{Commands: app.Commands, Queries: app.Queries, Logger: logger},
		Review:         ginserver.ReviewsHandler{Commands: app.Commands, Queries: app.Queries, Logger: logger},
		AuthMiddleware: ginserver.HeaderAuth{Logger: logger}.Handle,
		BookingLimiter: limiter.Limit(),
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		stop()
	}
	workers.Wait()
	logger.Info("HTTP server stopped")
}

type infrastructure struct {
	uow         uow.UoWFactory
	outbox      appoutbox.Outbox
	relay       appoutbox.Store
	idempotency middleware.IdempotencyStore
	inbox       payments.Inbox
	guard       domainpricing.Guard
	checks      []obs.Check
	closers     []func(context.Context) error
}

func buildInfrastructure(ctx context.Context, cfg config.Config, logger *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{}
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := dbmongo.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		infra.closers = append(infra.closers, client.Close)
		infra.checks = append(infra.checks, obs.Check{Name: "mongo", Run: client.Ping})
		if err := dbmongo.EnsureIndexes(ctx, client.DB); err != nil {
			return infra, err
		}
		box, err := infraoutbox.NewStore(ctx, client.DB)
		if err != nil {
			return infra, err
		}
		idem, err := dbmongo.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
		if err != nil {
			return infra, err
		}
		received, err := inbox.NewStore(ctx, client.DB, "payments")
		if err != nil {
			return infra, err
		}
		infra.uow = dbmongo.NewFactory(client.DB)
		infra.outbox, infra.relay = box, box
		infra.idempotency = idem
		infra.inbox = received
		logger.Info("mongo store ready", "database", cfg.MongoDB)
	default:
		store := memory.NewStore()
		infra.uow = store
		infra.outbox = memory.NewOutbox(store)
		infra.relay = store
		infra.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
		infra.inbox = memory.NewInbox()
		logger.Info("memory store ready")
	}

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return infra, err
		}
		infra.closers = append(infra.closers, func(context.Context) error { return rdb.Close() })
		infra.checks = append(infra.checks, obs.Check{Name: "redis", Run: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }})
		infra.guard = cache.NewGuard(rdb, logger)
	}
	return infra, nil
}

func (i *infrastructure) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for j := len(i.closers) - 1; j >= 0; j-- {
		if err := i.closers[j](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

func startMessaging(ctx context.Context, cfg config.Config, logger *slog.Logger, infra *infrastructure, app *application.Application, workers *sync.WaitGroup) error {
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return err
	}
	infra.closers = append(infra.closers, func(context.Context) error { return producer.Close() })

	relay := &infraoutbox.Worker{
		Store:       infra.relay,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Source:      serviceName,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}
	workers.Add(1)
	go func() {
		defer workers.Done()
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()

	handler := &payments.Handler{Bus: app.Commands, Inbox: infra.inbox, Logger: logger}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, handler, logger)
	if err != nil {
		return err
	}
	infra.closers = append(infra.closers, func(context.Context) error { return consumer.Close() })
	workers.Add(1)
	go func() {
		defer workers.Done()
		if err := consumer.Run(ctx, []string{cfg.PaymentsTopic}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("payments consumer stopped", "error", err)
		}
	}()
	logger.Info("messaging started", "brokers", cfg.KafkaBrokers, "payments_topic", cfg.PaymentsTopic)
	return nil
}
