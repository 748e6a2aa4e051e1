package memory

import (
	"context"
	"sort"
	"time"

	"babiloc/internal/app/uow"
	domainavailability "babiloc/internal/domain/availability"
	domainbooking "babiloc/internal/domain/booking"
	domainproperty "babiloc/internal/domain/property"
	domainreviews "babiloc/internal/domain/reviews"
	"babiloc/internal/domain/shared/events"
	"babiloc/internal/domain/user"
)

// Stored aggregates are never handed out directly; reads and writes copy them
// so a handler mutating a loaded aggregate changes nothing until Save.

func cloneProperty(p *domainproperty.Property) *domainproperty.Property {
	cp := *p
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}

func cloneWindow(w *domainavailability.Window) *domainavailability.Window {
	cp := *w
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}

func cloneReservation(r *domainbooking.Reservation) *domainbooking.Reservation {
	cp := *r
	cp.EventRecorder = events.EventRecorder{}
	cp.History = r.HistoryCopy()
	if r.ConfirmedAt != nil {
		at := *r.ConfirmedAt
		cp.ConfirmedAt = &at
	}
	return &cp
}

func cloneReview(r *domainreviews.Review) *domainreviews.Review {
	cp := *r
	cp.EventRecorder = events.EventRecorder{}
	if r.ReplyAt != nil {
		at := *r.ReplyAt
		cp.ReplyAt = &at
	}
	return &cp
}

type propertyRepo struct{ u *Unit }

func (r propertyRepo) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	p, ok := r.u.state.properties[id]
	if !ok {
		return nil, domainproperty.ErrNotFound
	}
	return cloneProperty(p), nil
}

func (r propertyRepo) Save(ctx context.Context, p *domainproperty.Property) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if cur, ok := r.u.state.properties[p.ID]; ok && cur.Version != p.Version {
		return uow.ErrConflict
	}
	p.Version++
	r.u.state.properties[p.ID] = cloneProperty(p)
	return nil
}

func (r propertyRepo) ListByOwner(ctx context.Context, owner user.ID) ([]*domainproperty.Property, error) {
	var out []*domainproperty.Property
	for _, p := range r.u.state.properties {
		if p.OwnerID == owner {
			out = append(out, cloneProperty(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type windowRepo struct{ u *Unit }

func (r windowRepo) ByID(ctx context.Context, id domainavailability.WindowID) (*domainavailability.Window, error) {
	w, ok := r.u.state.windows[id]
	if !ok {
		return nil, domainavailability.ErrWindowNotFound
	}
	return cloneWindow(w), nil
}

func (r windowRepo) ListByProperty(ctx context.Context, id domainproperty.ID) ([]*domainavailability.Window, error) {
	var out []*domainavailability.Window
	for _, w := range r.u.state.windows {
		if w.PropertyID == id {
			out = append(out, cloneWindow(w))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		wi, wj := domainavailability.WeekdayNumber(out[i].Weekday), domainavailability.WeekdayNumber(out[j].Weekday)
		if wi != wj {
			return wi < wj
		}
		return out[i].ValidFrom.Before(out[j].ValidFrom)
	})
	return out, nil
}

func (r windowRepo) Save(ctx context.Context, w *domainavailability.Window) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.state.windows[w.ID] = cloneWindow(w)
	return nil
}

func (r windowRepo) Delete(ctx context.Context, w *domainavailability.Window) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if _, ok := r.u.state.windows[w.ID]; !ok {
		return domainavailability.ErrWindowNotFound
	}
	delete(r.u.state.windows, w.ID)
	return nil
}

type reservationRepo struct{ u *Unit }

func (r reservationRepo) ByID(ctx context.Context, id domainbooking.ReservationID) (*domainbooking.Reservation, error) {
	res, ok := r.u.state.reservations[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneReservation(res), nil
}

func (r reservationRepo) Save(ctx context.Context, res *domainbooking.Reservation) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if cur, ok := r.u.state.reservations[res.ID]; ok && cur.Version != res.Version {
		return uow.ErrConflict
	}
	res.Version++
	r.u.state.reservations[res.ID] = cloneReservation(res)
	return nil
}

// LockProperty is satisfied by the store's writer lock, which the unit already holds.
func (r reservationRepo) LockProperty(ctx context.Context, id domainproperty.ID) error {
	return r.u.writable()
}

func (r reservationRepo) ActiveByProperty(ctx context.Context, id domainproperty.ID) ([]*domainbooking.Reservation, error) {
	return r.filter(func(res *domainbooking.Reservation) bool {
		return res.PropertyID == id && res.Status.Active()
	}), nil
}

func (r reservationRepo) ListByRenter(ctx context.Context, renter user.ID, statuses []domainbooking.Status) ([]*domainbooking.Reservation, error) {
	return r.filter(func(res *domainbooking.Reservation) bool {
		return res.RenterID == renter && statusIn(res.Status, statuses)
	}), nil
}

func (r reservationRepo) ListByOwner(ctx context.Context, owner user.ID, statuses []domainbooking.Status) ([]*domainbooking.Reservation, error) {
	return r.filter(func(res *domainbooking.Reservation) bool {
		return res.OwnerID == owner && statusIn(res.Status, statuses)
	}), nil
}

func (r reservationRepo) ListDue(ctx context.Context, now time.Time) ([]*domainbooking.Reservation, error) {
	return r.filter(func(res *domainbooking.Reservation) bool {
		switch res.Status {
		case domainbooking.StatusConfirmed:
			return !now.Before(res.Range.Start)
		case domainbooking.StatusInProgress:
			return !now.Before(res.Range.End)
		}
		return false
	}), nil
}

func (r reservationRepo) CompletedFor(ctx context.Context, renter user.ID, id domainproperty.ID) ([]*domainbooking.Reservation, error) {
	return r.filter(func(res *domainbooking.Reservation) bool {
		return res.RenterID == renter && res.PropertyID == id && res.Status == domainbooking.StatusCompleted
	}), nil
}

func (r reservationRepo) filter(keep func(*domainbooking.Reservation) bool) []*domainbooking.Reservation {
	var out []*domainbooking.Reservation
	for _, res := range r.u.state.reservations {
		if keep(res) {
			out = append(out, cloneReservation(res))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Range.Start.Equal(out[j].Range.Start) {
			return out[i].Range.Start.Before(out[j].Range.Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func statusIn(s domainbooking.Status, statuses []domainbooking.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

type reviewRepo struct{ u *Unit }

func (r reviewRepo) ByID(ctx context.Context, id domainreviews.ReviewID) (*domainreviews.Review, error) {
	rev, ok := r.u.state.reviews[id]
	if !ok {
		return nil, domainreviews.ErrNotFound
	}
	return cloneReview(rev), nil
}

func (r reviewRepo) ByAuthor(ctx context.Context, author user.ID, id domainproperty.ID) (*domainreviews.Review, error) {
	for _, rev := range r.u.state.reviews {
		if rev.AuthorID == author && rev.PropertyID == id {
			return cloneReview(rev), nil
		}
	}
	return nil, domainreviews.ErrNotFound
}

func (r reviewRepo) ListByProperty(ctx context.Context, id domainproperty.ID, limit, offset int) ([]*domainreviews.Review, error) {
	var out []*domainreviews.Review
	for _, rev := range r.u.state.reviews {
		if rev.PropertyID == id {
			out = append(out, cloneReview(rev))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Save enforces one review per (author, property).
func (r reviewRepo) Save(ctx context.Context, rev *domainreviews.Review) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	cur, exists := r.u.state.reviews[rev.ID]
	if !exists {
		for _, other := range r.u.state.reviews {
			if other.AuthorID == rev.AuthorID && other.PropertyID == rev.PropertyID {
				return domainreviews.ErrAlreadyExists
			}
		}
	} else if cur.Version != rev.Version {
		return uow.ErrConflict
	}
	rev.Version++
	r.u.state.reviews[rev.ID] = cloneReview(rev)
	return nil
}
