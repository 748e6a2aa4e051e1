package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/dto"
	availabilityapp "babiloc/internal/app/handlers/availability"
	bookingapp "babiloc/internal/app/handlers/booking"
	pricingapp "babiloc/internal/app/handlers/pricing"
	propertiesapp "babiloc/internal/app/handlers/properties"
	reviewsapp "babiloc/internal/app/handlers/reviews"
	"babiloc/internal/app/queries"
	domainavailability "babiloc/internal/domain/availability"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/user"
	"babiloc/internal/infra/storage/memory"
	"babiloc/internal/infra/validation"
)

var (
	owner  = user.Actor{ID: "owner-1", Role: user.RoleOwner}
	renter = user.Actor{ID: "renter-1", Role: user.RoleRenter}
	other  = user.Actor{ID: "renter-2", Role: user.RoleRenter}
	admin  = user.Actor{ID: "admin-1", Role: user.RoleAdmin}
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	t     *testing.T
	app   *Application
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	app := New(Deps{
		UoWFactory:      store,
		Outbox:          memory.NewOutbox(store),
		Idempotency:     memory.NewIdempotencyStore(time.Hour),
		Validator:       validation.New(),
		DefaultCurrency: "XOF",
		Now:             func() time.Time { return time.Date(2023, time.December, 20, 12, 0, 0, 0, time.UTC) },
	})
	return &fixture{t: t, app: app, store: store}
}

// listing creates a property with a DAILY tariff and windows for the given weekdays across January 2024.
func (f *fixture) listing(price int64, weekdays ...time.Weekday) string {
	f.t.Helper()
	ctx := context.Background()
	prop, err := commands.Dispatch[propertiesapp.CreatePropertyCommand, dto.Property](ctx, f.app.Commands, propertiesapp.CreatePropertyCommand{
		Actor: owner,
		Title: "Villa Cocody",
		City:  "Abidjan",
	})
	require.NoError(f.t, err)
	for _, wd := range weekdays {
		_, err := commands.Dispatch[availabilityapp.AddWindowCommand, dto.Window](ctx, f.app.Commands, availabilityapp.AddWindowCommand{
			Actor:      owner,
			PropertyID: prop.ID,
			Weekday:    domainavailability.WeekdayNumber(wd),
			ValidFrom:  day(2024, time.January, 1),
			ValidTo:    day(2024, time.January, 31),
		})
		require.NoError(f.t, err)
	}
	_, err = commands.Dispatch[pricingapp.SetTariffCommand, dto.TariffCollection](ctx, f.app.Commands, pricingapp.SetTariffCommand{
		Actor:      owner,
		PropertyID: prop.ID,
		Kind:       "DAILY",
		Price:      price,
	})
	require.NoError(f.t, err)
	return prop.ID
}

func allWeek() []time.Weekday {
	return []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
}

func (f *fixture) book(actor user.Actor, propertyID string, start, end time.Time, key string) (*dto.Reservation, error) {
	return commands.Dispatch[bookingapp.CreateReservationCommand, *dto.Reservation](context.Background(), f.app.Commands, bookingapp.CreateReservationCommand{
		Actor:           actor,
		PropertyID:      propertyID,
		DateStart:       start,
		DateEnd:         end,
		TariffKind:      "DAILY",
		IdempotencyKeyV: key,
	})
}

func TestCreateReservationPricesAndSplits(t *testing.T) {
	f := newFixture(t)
	pid := f.listing(20000, allWeek()...)

	res, err := f.book(renter, pid, day(2024, time.January, 8), day(2024, time.January, 11), "")
	require.NoError(t, err)

	assert.Equal(t, "pending", res.Status)
	assert.Equal(t, 3, res.Nights)
	assert.Equal(t, int64(60000), res.GrossPrice.Amount)
	assert.Equal(t, int64(9000), res.Commission.Amount)
	assert.Equal(t, int64(51000), res.OwnerNet.Amount)
	assert.Equal(t, owner.ID, user.ID(res.OwnerID))
}

func TestCreateReservationRejectsUncoveredDay(t *testing.T) {
	f := newFixture(t)
	pid := f.listing(20000, time.Monday)

	_, err := f.book(renter, pid, day(2024, time.January, 1), day(2024, time.January, 3), "")
	require.Error(t, err)
	fe, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, failure.KindConflict, fe.Kind)
	assert.Equal(t, failure.CodeDateNotCovered, fe.Code)
	require.NotNil(t, fe.Date)
	assert.Equal(t, day(2024, time.January, 2), *fe.Date)
}

func TestCreateReservationTouchingRangesDoNotConflict(t *testing.T) {
	f := newFixture(t)
	pid := f.listing(20000, allWeek()...)

	_, err := f.book(renter, pid, day(2024, time.January, 1), day(2024, time.January, 5), "")
	require.NoError(t, err)
	_, err = f.book(other, pid, day(2024, time.January, 5), day(2024, time.January, 10), "")
	require.NoError(t, err)

	_, err = f.book(other, pid, day(2024, time.January, 4), day(2024, time.January, 6), "")
	assert.ErrorIs(t, err, &failure.Error{Kind: failure.KindConflict, Code: failure.CodeOverlap})
}

func TestCreateReservationConcurrentRequestsAcceptOne(t *testing.T) {
	f := newFixture(t)
	pid := f.listing(20000, allWeek()...)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, actor := range []user.Actor{renter, other} {
		wg.Add(1)
		go func(i int, actor user.Actor) {
			defer wg.Done()
			_, errs[i] = f.book(actor, pid, day(2024, time.January, 10), day(2024, time.January, 14), "")
		}(i, actor)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		assert.ErrorIs(t, err, failure.ErrConflict)
	}
	assert.Equal(t, 1, accepted)
}

func TestCreateReservationIdempotencyKeyReplays(t *testing.T) {
	f := newFixture(t)
	pid := f.listing(20000, allWeek()...)

	first, err := f.book(renter, pid, day(2024, time.January, 8), day(2024, time.January, 9), "k-1")
	require.NoError(t, err)
	second, err := f.book(renter, pid, day(2024, time.January, 8), day(2024, time.January, 9), "k-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := queries.Ask[bookingapp.ListRenterReservationsQuery, dto.ReservationCollection](context.Background(), f.app.Queries, bookingapp.ListRenterReservationsQuery{Actor: renter, Status: "all"})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}

func TestCreateReservationRequiresActor(t *testing.T) {
	f := newFixture(t)
	pid := f.listing(20000, allWeek()...)

	_, err := f.book(user.Actor{}, pid, day(2024, time.January, 8), day(2024, time.January, 9), "")
	assert.ErrorIs(t, err, failure.ErrPermission)
}

func TestCreateReservationWithoutTariff(t *testing.T) {
	f := newFixture(t)
	pid := f.listing(20000, allWeek()...)

	_, err := commands.Dispatch[bookingapp.CreateReservationCommand, *dto.Reservation](context.Background(), f.app.Commands, bookingapp.CreateReservationCommand{
		Actor:      renter,
		PropertyID: pid,
		DateStart:  day(2024, time.January, 8),
		DateEnd:    day(2024, time.January, 9),
		TariffKind: "HOURLY",
	})
	assert.ErrorIs(t, err, failure.ErrValidation)
}

func TestReservationLifecycleAndReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.listing(20000, allWeek()...)

	res, err := f.book(renter, pid, day(2024, time.January, 8), day(2024, time.January, 11), "")
	require.NoError(t, err)

	_, err = commands.Dispatch[bookingapp.ConfirmReservationCommand, *dto.StatusResult](ctx, f.app.Commands, bookingapp.ConfirmReservationCommand{Actor: renter, ReservationID: res.ID})
	assert.ErrorIs(t, err, failure.ErrPermission)

	status, err := commands.Dispatch[bookingapp.ConfirmReservationCommand, *dto.StatusResult](ctx, f.app.Commands, bookingapp.ConfirmReservationCommand{Actor: owner, ReservationID: res.ID})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", status.Status)

	_, err = commands.Dispatch[bookingapp.ConfirmReservationCommand, *dto.StatusResult](ctx, f.app.Commands, bookingapp.ConfirmReservationCommand{Actor: owner, ReservationID: res.ID})
	assert.ErrorIs(t, err, failure.ErrInvalidTransition)

	elig, err := queries.Ask[reviewsapp.EligibilityQuery, dto.Eligibility](ctx, f.app.Queries, reviewsapp.EligibilityQuery{Actor: renter, PropertyID: pid})
	require.NoError(t, err)
	assert.False(t, elig.CanReview)
	assert.Equal(t, failure.CodeNoCompletedStay, elig.Reason)

	sweep := bookingapp.AdvanceReservationsCommand{At: day(2024, time.January, 11)}
	result, err := commands.Dispatch[bookingapp.AdvanceReservationsCommand, *bookingapp.SweepResult](ctx, f.app.Commands, sweep)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Started)
	assert.Equal(t, 1, result.Completed)

	again, err := commands.Dispatch[bookingapp.AdvanceReservationsCommand, *bookingapp.SweepResult](ctx, f.app.Commands, sweep)
	require.NoError(t, err)
	assert.Zero(t, again.Started)
	assert.Zero(t, again.Completed)

	got, err := queries.Ask[bookingapp.GetReservationQuery, dto.Reservation](ctx, f.app.Queries, bookingapp.GetReservationQuery{Actor: renter, ReservationID: res.ID})
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	assert.Len(t, got.History, 3)

	elig, err = queries.Ask[reviewsapp.EligibilityQuery, dto.Eligibility](ctx, f.app.Queries, reviewsapp.EligibilityQuery{Actor: renter, PropertyID: pid})
	require.NoError(t, err)
	assert.True(t, elig.CanReview)
	assert.Equal(t, res.ID, elig.ReservationID)

	elig, err = queries.Ask[reviewsapp.EligibilityQuery, dto.Eligibility](ctx, f.app.Queries, reviewsapp.EligibilityQuery{Actor: owner, PropertyID: pid})
	require.NoError(t, err)
	assert.Equal(t, failure.CodeSelfReview, elig.Reason)

	submit := reviewsapp.SubmitReviewCommand{Actor: renter, PropertyID: pid, ReservationID: res.ID, Rating: 4, Recommend: true, Comment: "quiet street"}
	created, err := commands.Dispatch[reviewsapp.SubmitReviewCommand, dto.ReviewCreated](ctx, f.app.Commands, submit)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ReviewID)

	_, err = commands.Dispatch[reviewsapp.SubmitReviewCommand, dto.ReviewCreated](ctx, f.app.Commands, submit)
	assert.ErrorIs(t, err, &failure.Error{Kind: failure.KindEligibility, Code: failure.CodeAlreadyReviewed})

	prop, err := queries.Ask[propertiesapp.GetPropertyQuery, dto.Property](ctx, f.app.Queries, propertiesapp.GetPropertyQuery{PropertyID: pid})
	require.NoError(t, err)
	assert.Equal(t, 1, prop.ReviewCount)
	assert.InDelta(t, 4.0, prop.Rating, 0.001)

	reply, err := commands.Dispatch[reviewsapp.ReplyReviewCommand, dto.Review](ctx, f.app.Commands, reviewsapp.ReplyReviewCommand{Actor: owner, ReviewID: created.ReviewID, Text: "thanks"})
	require.NoError(t, err)
	assert.Equal(t, "thanks", reply.OwnerReply)

	names := map[string]int{}
	for _, rec := range f.store.Pending() {
		names[rec.Name]++
	}
	assert.Equal(t, 1, names["reservation.created"])
	assert.Equal(t, 3, names["reservation.status_changed"])
	assert.Equal(t, 1, names["review.created"])
	assert.Equal(t, 1, names["review.replied"])
}

func TestCancelledReservationFreesDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.listing(20000, allWeek()...)

	res, err := f.book(renter, pid, day(2024, time.January, 8), day(2024, time.January, 11), "")
	require.NoError(t, err)

	_, err = commands.Dispatch[bookingapp.CancelReservationCommand, *dto.StatusResult](ctx, f.app.Commands, bookingapp.CancelReservationCommand{Actor: other, ReservationID: res.ID})
	assert.ErrorIs(t, err, failure.ErrPermission)

	status, err := commands.Dispatch[bookingapp.CancelReservationCommand, *dto.StatusResult](ctx, f.app.Commands, bookingapp.CancelReservationCommand{Actor: renter, ReservationID: res.ID, Reason: "plans changed"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", status.Status)

	_, err = f.book(other, pid, day(2024, time.January, 9), day(2024, time.January, 10), "")
	assert.NoError(t, err)
}

func TestQuoteAppliesPromo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.listing(20000, allWeek()...)

	_, err := commands.Dispatch[pricingapp.CreatePromoCommand, dto.Promo](ctx, f.app.Commands, pricingapp.CreatePromoCommand{Actor: owner, Code: "hello", Kind: "percent", Value: 10})
	assert.ErrorIs(t, err, failure.ErrPermission)

	promo, err := commands.Dispatch[pricingapp.CreatePromoCommand, dto.Promo](ctx, f.app.Commands, pricingapp.CreatePromoCommand{Actor: admin, Code: "hello", Kind: "percent", Value: 10})
	require.NoError(t, err)
	assert.Equal(t, "HELLO", promo.Code)

	quote, err := queries.Ask[pricingapp.QuoteQuery, dto.Quote](ctx, f.app.Queries, pricingapp.QuoteQuery{
		PropertyID: pid,
		DateStart:  day(2024, time.January, 8),
		DateEnd:    day(2024, time.January, 10),
		TariffKind: "DAILY",
		PromoCode:  "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(40000), quote.BasePrice.Amount)
	assert.Equal(t, int64(4000), quote.Discount.Amount)
	assert.Equal(t, int64(36000), quote.GrossPrice.Amount)
	assert.Equal(t, int64(5400), quote.Commission.Amount)
	assert.Equal(t, int64(30600), quote.OwnerNet.Amount)
}

func TestWindowsBelongToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.listing(20000, time.Monday)

	_, err := commands.Dispatch[availabilityapp.AddWindowCommand, dto.Window](ctx, f.app.Commands, availabilityapp.AddWindowCommand{
		Actor:      other,
		PropertyID: pid,
		Weekday:    2,
		ValidFrom:  day(2024, time.January, 1),
		ValidTo:    day(2024, time.January, 31),
	})
	assert.ErrorIs(t, err, failure.ErrPermission)

	windows, err := queries.Ask[availabilityapp.ListWindowsQuery, dto.WindowCollection](ctx, f.app.Queries, availabilityapp.ListWindowsQuery{PropertyID: pid})
	require.NoError(t, err)
	require.Len(t, windows.Items, 1)

	_, err = commands.Dispatch[availabilityapp.RemoveWindowCommand, dto.Window](ctx, f.app.Commands, availabilityapp.RemoveWindowCommand{Actor: owner, PropertyID: pid, WindowID: windows.Items[0].ID})
	require.NoError(t, err)

	_, err = f.book(renter, pid, day(2024, time.January, 8), day(2024, time.January, 9), "")
	assert.ErrorIs(t, err, &failure.Error{Kind: failure.KindConflict, Code: failure.CodeNoAvailability})
}

func TestCreatePropertyValidatesTitle(t *testing.T) {
	f := newFixture(t)
	_, err := commands.Dispatch[propertiesapp.CreatePropertyCommand, dto.Property](context.Background(), f.app.Commands, propertiesapp.CreatePropertyCommand{Actor: owner})
	assert.ErrorIs(t, err, failure.ErrValidation)
}
