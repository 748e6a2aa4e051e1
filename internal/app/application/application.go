package application

import (
	"log/slog"
	"time"

	"babiloc/internal/app/commands"
	availabilityapp "babiloc/internal/app/handlers/availability"
	bookingapp "babiloc/internal/app/handlers/booking"
	pricingapp "babiloc/internal/app/handlers/pricing"
	propertiesapp "babiloc/internal/app/handlers/properties"
	reviewsapp "babiloc/internal/app/handlers/reviews"
	"babiloc/internal/app/middleware"
	"babiloc/internal/app/outbox"
	"babiloc/internal/app/queries"
	"babiloc/internal/app/uow"
	domainpricing "babiloc/internal/domain/pricing"
)

// Deps are the adapters the application runs on.
type Deps struct {
	UoWFactory      uow.UoWFactory
	Outbox          outbox.Outbox
	Idempotency     middleware.IdempotencyStore
	Guard           domainpricing.Guard
	Validator       middleware.Validator
	Logger          *slog.Logger
	DefaultCurrency string
	Now             func() time.Time
	NewID           func() string
}

// Application exposes the command and query buses with their middleware pipelines.
type Application struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// New registers every handler and wraps the buses. Command pipeline, outermost first:
// logging, idempotency, conflict retry, authorization, validation, transaction, outbox flush.
func New(d Deps) *Application {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	encoder := outbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	props := &propertiesapp.Handler{UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Now: d.Now, NewID: d.NewID, Logger: logger}
	commands.RegisterHandler(commandBus, propertiesapp.CreatePropertyCommand{}.Key(), props.Create())
	commands.RegisterHandler(commandBus, propertiesapp.VerifyPropertyCommand{}.Key(), props.Verify())
	queries.RegisterHandler(queryBus, propertiesapp.GetPropertyQuery{}.Key(), props.Get())

	windows := &availabilityapp.WindowsHandler{UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Now: d.Now, NewID: d.NewID, Logger: logger}
	commands.RegisterHandler(commandBus, availabilityapp.AddWindowCommand{}.Key(), windows.Add())
	commands.RegisterHandler(commandBus, availabilityapp.RemoveWindowCommand{}.Key(), windows.Remove())
	queries.RegisterHandler(queryBus, availabilityapp.ListWindowsQuery{}.Key(), windows.List())

	commands.RegisterHandler(commandBus, pricingapp.SetTariffCommand{}.Key(), &pricingapp.SetTariffHandler{
		UoWFactory:      d.UoWFactory,
		Guard:           d.Guard,
		Outbox:          d.Outbox,
		Encoder:         encoder,
		DefaultCurrency: d.DefaultCurrency,
		Now:             d.Now,
		Logger:          logger,
	})
	commands.RegisterHandler(commandBus, pricingapp.CreatePromoCommand{}.Key(), &pricingapp.CreatePromoHandler{UoWFactory: d.UoWFactory, Now: d.Now, Logger: logger})
	queries.RegisterHandler(queryBus, pricingapp.ListTariffsQuery{}.Key(), &pricingapp.ListTariffsHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler(queryBus, pricingapp.QuoteQuery{}.Key(), &pricingapp.QuoteHandler{UoWFactory: d.UoWFactory, Now: d.Now})

	commands.RegisterHandler(commandBus, bookingapp.CreateReservationCommand{}.Key(), &bookingapp.CreateReservationHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     d.Outbox,
		Encoder:    encoder,
		Now:        d.Now,
		NewID:      d.NewID,
		Logger:     logger,
	})
	transitions := &bookingapp.TransitionHandler{UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Now: d.Now, Logger: logger}
	commands.RegisterHandler(commandBus, bookingapp.ConfirmReservationCommand{}.Key(), transitions.Confirm())
	commands.RegisterHandler(commandBus, bookingapp.CancelReservationCommand{}.Key(), transitions.Cancel())
	commands.RegisterHandler(commandBus, bookingapp.CompleteReservationCommand{}.Key(), transitions.Complete())
	commands.RegisterHandler(commandBus, bookingapp.AdvanceReservationsCommand{}.Key(), &bookingapp.SweepHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     d.Outbox,
		Encoder:    encoder,
		Now:        d.Now,
		Logger:     logger,
	})
	bookingQueries := &bookingapp.QueryHandler{UoWFactory: d.UoWFactory, Logger: logger}
	queries.RegisterHandler(queryBus, bookingapp.GetReservationQuery{}.Key(), bookingQueries.Get())
	queries.RegisterHandler(queryBus, bookingapp.ListRenterReservationsQuery{}.Key(), bookingQueries.ListRenter())
	queries.RegisterHandler(queryBus, bookingapp.ListOwnerReservationsQuery{}.Key(), bookingQueries.ListOwner())

	commands.RegisterHandler(commandBus, reviewsapp.SubmitReviewCommand{}.Key(), &reviewsapp.SubmitReviewHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     d.Outbox,
		Encoder:    encoder,
		Now:        d.Now,
		NewID:      d.NewID,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, reviewsapp.ReplyReviewCommand{}.Key(), &reviewsapp.ReplyReviewHandler{
		UoWFactory: d.UoWFactory,
		Outbox:     d.Outbox,
		Encoder:    encoder,
		Now:        d.Now,
		Logger:     logger,
	})
	reviewQueries := &reviewsapp.QueryHandler{UoWFactory: d.UoWFactory, Logger: logger}
	queries.RegisterHandler(queryBus, reviewsapp.EligibilityQuery{}.Key(), reviewQueries.Eligibility())
	queries.RegisterHandler(queryBus, reviewsapp.ListReviewsQuery{}.Key(), reviewQueries.List())

	logger.Debug("application handlers registered", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	commandMWs := []middleware.CommandMiddleware{middleware.Logging(logger)}
	if d.Idempotency != nil {
		commandMWs = append(commandMWs, middleware.Idempotency(d.Idempotency, nil))
	}
	commandMWs = append(commandMWs,
		middleware.RetryOnConflict(logger),
		middleware.Authorization(middleware.RoleAuthorizer{}),
	)
	if d.Validator != nil {
		commandMWs = append(commandMWs, middleware.Validation(d.Validator))
	}
	commandMWs = append(commandMWs, middleware.Transaction(d.UoWFactory))
	if d.Outbox != nil {
		commandMWs = append(commandMWs, middleware.OutboxFlush(d.Outbox))
	}

	queryMWs := []middleware.QueryMiddleware{middleware.QueryAuthorization(middleware.RoleAuthorizer{})}
	if d.Validator != nil {
		queryMWs = append(queryMWs, middleware.QueryValidation(d.Validator))
	}

	return &Application{
		Commands: middleware.ChainCommands(commandBus, commandMWs...),
		Queries:  middleware.ChainQueries(queryBus, queryMWs...),
	}
}
