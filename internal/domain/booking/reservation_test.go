package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babiloc/internal/domain/pricing"
	"babiloc/internal/domain/shared/daterange"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/shared/money"
	"babiloc/internal/domain/user"
)

var (
	renter = user.Actor{ID: "renter-1", Role: user.RoleRenter}
	owner  = user.Actor{ID: "owner-1", Role: user.RoleOwner}
	admin  = user.Actor{ID: "admin-1", Role: user.RoleAdmin}
	other  = user.Actor{ID: "someone", Role: user.RoleRenter}
)

func newPending(t *testing.T) *Reservation {
	t.Helper()
	r, err := NewReservation(CreateParams{
		ID:         "r-1",
		PropertyID: "p-1",
		RenterID:   renter.ID,
		OwnerID:    owner.ID,
		Range:      daterange.DateRange{Start: day("2024-01-10"), End: day("2024-01-15")},
		Quote:      pricing.Quote{Kind: pricing.KindDaily, Gross: money.Must(100000, "XOF")},
		CreatedAt:  day("2024-01-01"),
	})
	require.NoError(t, err)
	return r
}

func TestNewReservationComputesSplit(t *testing.T) {
	r := newPending(t)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, int64(100000), r.Gross.Amount)
	assert.Equal(t, int64(15000), r.Commission.Amount)
	assert.Equal(t, int64(85000), r.OwnerNet.Amount)
	require.Len(t, r.PendingEvents(), 1)
	assert.Equal(t, "reservation.created", r.PendingEvents()[0].EventName())
}

func TestLifecycleHappyPath(t *testing.T) {
	r := newPending(t)
	now := day("2024-01-02")

	require.NoError(t, r.Confirm(owner, now))
	require.NotNil(t, r.ConfirmedAt)
	assert.Equal(t, now, *r.ConfirmedAt)

	require.NoError(t, r.Start(user.SystemActor, day("2024-01-10")))
	require.NoError(t, r.Complete(admin, day("2024-01-15")))
	assert.Equal(t, StatusCompleted, r.Status)

	h := r.HistoryCopy()
	require.Len(t, h, 3)
	assert.Equal(t, Transition{From: StatusPending, To: StatusConfirmed, At: now, Actor: owner.ID}, h[0])
	assert.Equal(t, StatusConfirmed, h[1].From)
	assert.Equal(t, StatusCompleted, h[2].To)
}

func TestTransitionsOutOfOrderFail(t *testing.T) {
	r := newPending(t)
	err := r.Start(admin, day("2024-01-10"))
	assert.True(t, errors.Is(err, failure.ErrInvalidTransition))
	err = r.Complete(admin, day("2024-01-10"))
	assert.True(t, errors.Is(err, failure.ErrInvalidTransition))

	require.NoError(t, r.Confirm(admin, day("2024-01-02")))
	err = r.Confirm(admin, day("2024-01-02"))
	assert.True(t, errors.Is(err, failure.ErrInvalidTransition))
	assert.Len(t, r.History, 1)
}

func TestConfirmRequiresOwnerOrAdmin(t *testing.T) {
	r := newPending(t)
	err := r.Confirm(renter, day("2024-01-02"))
	assert.True(t, errors.Is(err, failure.ErrPermission))
	assert.Equal(t, StatusPending, r.Status)
	assert.Empty(t, r.History)
}

func TestPermissionIsCheckedBeforeState(t *testing.T) {
	r := newPending(t)
	require.NoError(t, r.Cancel(renter, "", day("2024-01-02")))
	err := r.Confirm(other, day("2024-01-02"))
	assert.True(t, errors.Is(err, failure.ErrPermission))
}

func TestCancel(t *testing.T) {
	for _, actor := range []user.Actor{renter, owner, admin} {
		r := newPending(t)
		require.NoError(t, r.Cancel(actor, " changed plans ", day("2024-01-02")), actor.ID)
		assert.Equal(t, StatusCancelled, r.Status)
		assert.Equal(t, "changed plans", r.History[0].Reason)
	}

	confirmed := newPending(t)
	require.NoError(t, confirmed.Confirm(owner, day("2024-01-02")))
	require.NoError(t, confirmed.Cancel(renter, "", day("2024-01-03")))

	stranger := newPending(t)
	assert.True(t, errors.Is(stranger.Cancel(other, "", day("2024-01-02")), failure.ErrPermission))
}

func TestCancelTerminalFails(t *testing.T) {
	r := newPending(t)
	require.NoError(t, r.Confirm(owner, day("2024-01-02")))
	require.True(t, r.Advance(day("2024-01-16")))
	require.Equal(t, StatusCompleted, r.Status)

	err := r.Cancel(admin, "", day("2024-01-17"))
	fe, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, failure.KindInvalidTransition, fe.Kind)

	cancelled := newPending(t)
	require.NoError(t, cancelled.Cancel(renter, "", day("2024-01-02")))
	assert.True(t, errors.Is(cancelled.Cancel(renter, "", day("2024-01-02")), failure.ErrInvalidTransition))
}

func TestAdvanceIsIdempotent(t *testing.T) {
	r := newPending(t)
	assert.False(t, r.Advance(day("2024-01-20")), "pending is never swept")

	require.NoError(t, r.Confirm(owner, day("2024-01-02")))
	assert.False(t, r.Advance(day("2024-01-09")))

	mid := day("2024-01-12").Add(10 * time.Hour)
	assert.True(t, r.Advance(mid))
	assert.Equal(t, StatusInProgress, r.Status)
	assert.False(t, r.Advance(mid))

	assert.True(t, r.Advance(day("2024-01-15")))
	assert.Equal(t, StatusCompleted, r.Status)
	assert.False(t, r.Advance(day("2024-02-01")))
	assert.Len(t, r.History, 3)
}

func TestAdvanceCatchesUpElapsedStay(t *testing.T) {
	r := newPending(t)
	require.NoError(t, r.Confirm(owner, day("2024-01-02")))
	assert.True(t, r.Advance(day("2024-02-01")))
	assert.Equal(t, StatusCompleted, r.Status)
	require.Len(t, r.History, 3)
	assert.Equal(t, StatusInProgress, r.History[1].To)
	assert.Equal(t, user.SystemActor.ID, r.History[2].Actor)
}
