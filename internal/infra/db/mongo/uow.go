package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"babiloc/internal/app/uow"
	domainavailability "babiloc/internal/domain/availability"
	domainbooking "babiloc/internal/domain/booking"
	domainpricing "babiloc/internal/domain/pricing"
	domainproperty "babiloc/internal/domain/property"
	domainreviews "babiloc/internal/domain/reviews"
)

// Factory wires Mongo sessions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	properties   *PropertyRepository
	windows      *WindowRepository
	tariffs      *TariffRepository
	promos       *PromoRepository
	reservations *ReservationRepository
	reviews      *ReviewRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func NewFactory(db *mongo.Database) *Factory {
	return &Factory{
		DB:           db,
		properties:   NewPropertyRepository(db),
		windows:      NewWindowRepository(db),
		tariffs:      NewTariffRepository(db),
		promos:       NewPromoRepository(db),
		reservations: NewReservationRepository(db),
		reviews:      NewReviewRepository(db),
	}
}

// Begin starts a session. Write units also start a snapshot transaction with majority writes.
func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f == nil || f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	unit := &Unit{factory: f, session: session, readOnly: opts.ReadOnly}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return unit, nil
}

type Unit struct {
	factory  *Factory
	session  mongo.Session
	readOnly bool
	closed   bool
}

func (u *Unit) Properties() domainproperty.Repository       { return u.factory.properties }
func (u *Unit) Availability() domainavailability.Repository { return u.factory.windows }
func (u *Unit) Tariffs() domainpricing.TariffRepository     { return u.factory.tariffs }
func (u *Unit) Promos() domainpricing.PromoRepository       { return u.factory.promos }
func (u *Unit) Reservations() domainbooking.Repository      { return u.factory.reservations }
func (u *Unit) Reviews() domainreviews.Repository           { return u.factory.reviews }

func (u *Unit) Commit(ctx context.Context) error {
	if u.closed {
		return nil
	}
	u.closed = true
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return mapErr(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.closed {
		return nil
	}
	u.closed = true
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = (*Factory)(nil)
