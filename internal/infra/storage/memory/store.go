package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "babiloc/internal/app/outbox"
	"babiloc/internal/app/uow"
	domainavailability "babiloc/internal/domain/availability"
	domainbooking "babiloc/internal/domain/booking"
	domainpricing "babiloc/internal/domain/pricing"
	domainproperty "babiloc/internal/domain/property"
	domainreviews "babiloc/internal/domain/reviews"
)

// ErrUnitClosed is returned when a unit is used after Commit or Rollback.
var ErrUnitClosed = errors.New("memory: unit of work already closed")

type tariffKey struct {
	property domainproperty.ID
	kind     domainpricing.Kind
}

// state is an immutable snapshot once committed. Writers copy the maps and swap the pointer.
type state struct {
	properties   map[domainproperty.ID]*domainproperty.Property
	windows      map[domainavailability.WindowID]*domainavailability.Window
	tariffs      map[tariffKey]*domainpricing.Tariff
	promos       map[string]*domainpricing.CodePromo
	reservations map[domainbooking.ReservationID]*domainbooking.Reservation
	reviews      map[domainreviews.ReviewID]*domainreviews.Review
}

func newState() *state {
	return &state{
		properties:   map[domainproperty.ID]*domainproperty.Property{},
		windows:      map[domainavailability.WindowID]*domainavailability.Window{},
		tariffs:      map[tariffKey]*domainpricing.Tariff{},
		promos:       map[string]*domainpricing.CodePromo{},
		reservations: map[domainbooking.ReservationID]*domainbooking.Reservation{},
		reviews:      map[domainreviews.ReviewID]*domainreviews.Review{},
	}
}

func (s *state) fork() *state {
	return &state{
		properties:   copyMap(s.properties),
		windows:      copyMap(s.windows),
		tariffs:      copyMap(s.tariffs),
		promos:       copyMap(s.promos),
		reservations: copyMap(s.reservations),
		reviews:      copyMap(s.reviews),
	}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Store keeps every aggregate in process memory. Write units are serialized,
// so a unit sees either all or none of another unit's changes.
type Store struct {
	writer sync.Mutex

	mu        sync.RWMutex
	committed *state

	relay relayQueue
}

func NewStore() *Store {
	return &Store{committed: newState()}
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed
}

// Begin implements uow.UoWFactory. A write unit holds the store's writer lock until it is closed.
func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if opts.ReadOnly {
		return &Unit{store: s, state: s.snapshot(), readOnly: true}, nil
	}
	s.writer.Lock()
	return &Unit{store: s, state: s.snapshot().fork()}, nil
}

// Unit is a uow.UnitOfWork over a private copy of the store state.
type Unit struct {
	store    *Store
	state    *state
	readOnly bool
	closed   bool
	staged   []appoutbox.EventRecord
}

func (u *Unit) Properties() domainproperty.Repository       { return propertyRepo{u} }
func (u *Unit) Availability() domainavailability.Repository { return windowRepo{u} }
func (u *Unit) Tariffs() domainpricing.TariffRepository     { return tariffRepo{u} }
func (u *Unit) Promos() domainpricing.PromoRepository       { return promoRepo{u} }
func (u *Unit) Reservations() domainbooking.Repository      { return reservationRepo{u} }
func (u *Unit) Reviews() domainreviews.Repository           { return reviewRepo{u} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.closed {
		return ErrUnitClosed
	}
	u.closed = true
	if u.readOnly {
		return nil
	}
	defer u.store.writer.Unlock()
	u.store.mu.Lock()
	u.store.committed = u.state
	u.store.mu.Unlock()
	u.store.relay.push(u.staged...)
	u.staged = nil
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.closed {
		return nil
	}
	u.closed = true
	u.staged = nil
	if !u.readOnly {
		u.store.writer.Unlock()
	}
	return nil
}

func (u *Unit) writable() error {
	if u.closed {
		return ErrUnitClosed
	}
	if u.readOnly {
		return errReadOnly
	}
	return nil
}

var errReadOnly = errors.New("memory: write attempted in read-only unit")

var _ uow.UoWFactory = (*Store)(nil)
