package uow

import (
	"context"
	"errors"

	domainavailability "babiloc/internal/domain/availability"
	domainbooking "babiloc/internal/domain/booking"
	domainpricing "babiloc/internal/domain/pricing"
	domainproperty "babiloc/internal/domain/property"
	domainreviews "babiloc/internal/domain/reviews"
)

// ErrConflict is returned by repositories or Commit when a concurrent writer won.
// The whole command may be retried.
var ErrConflict = errors.New("uow: concurrent modification")

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Properties() domainproperty.Repository
	Availability() domainavailability.Repository
	Tariffs() domainpricing.TariffRepository
	Promos() domainpricing.PromoRepository
	Reservations() domainbooking.Repository
	Reviews() domainreviews.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}
