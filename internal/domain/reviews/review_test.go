package reviews

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babiloc/internal/domain/booking"
	"babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/daterange"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/user"
)

var (
	prop = &property.Property{ID: "p-1", OwnerID: "owner-1"}
	now  = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
)

func completedStay(id string, renter user.ID, completed time.Time) *booking.Reservation {
	return &booking.Reservation{
		ID:         booking.ReservationID(id),
		PropertyID: prop.ID,
		RenterID:   renter,
		Status:     booking.StatusCompleted,
		Range:      daterange.DateRange{Start: completed.AddDate(0, 0, -3), End: completed},
		History:    []booking.Transition{{From: booking.StatusInProgress, To: booking.StatusCompleted, At: completed}},
	}
}

func TestEvaluateAlreadyReviewedComesFirst(t *testing.T) {
	existing := &Review{ID: "rv-1", PropertyID: prop.ID, AuthorID: "owner-1"}
	e := Evaluate("owner-1", prop, existing, nil)
	assert.False(t, e.Allowed)
	assert.Equal(t, failure.CodeAlreadyReviewed, e.Reason)
}

func TestEvaluateSelfReviewBeforeCompletedStay(t *testing.T) {
	stays := []*booking.Reservation{completedStay("r-1", "owner-1", now)}
	e := Evaluate("owner-1", prop, nil, stays)
	assert.False(t, e.Allowed)
	assert.Equal(t, failure.CodeSelfReview, e.Reason)

	err := e.Err()
	assert.True(t, errors.Is(err, failure.ErrEligibility))
	fe, _ := failure.As(err)
	assert.Equal(t, "cannot review own property", fe.Detail)
}

func TestEvaluateRequiresCompletedStay(t *testing.T) {
	e := Evaluate("renter-1", prop, nil, nil)
	assert.Equal(t, failure.CodeNoCompletedStay, e.Reason)

	cancelled := completedStay("r-1", "renter-1", now)
	cancelled.Status = booking.StatusCancelled
	e = Evaluate("renter-1", prop, nil, []*booking.Reservation{cancelled})
	assert.Equal(t, failure.CodeNoCompletedStay, e.Reason)
}

func TestEvaluateOffersMostRecentStay(t *testing.T) {
	stays := []*booking.Reservation{
		completedStay("r-old", "renter-1", now.AddDate(0, -2, 0)),
		completedStay("r-new", "renter-1", now),
		completedStay("r-mid", "renter-1", now.AddDate(0, -1, 0)),
	}
	e := Evaluate("renter-1", prop, nil, stays)
	require.True(t, e.Allowed)
	assert.Equal(t, booking.ReservationID("r-new"), e.ReservationID)
	assert.NoError(t, e.Err())
}

func TestSubmitValidatesRatings(t *testing.T) {
	_, err := Submit(SubmitParams{ID: "rv-1", Rating: 0})
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = Submit(SubmitParams{ID: "rv-1", Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = Submit(SubmitParams{ID: "rv-1", Rating: 4, Scores: Scores{Cleanliness: 9}})
	assert.ErrorIs(t, err, ErrInvalidScore)

	r, err := Submit(SubmitParams{ID: "rv-1", PropertyID: prop.ID, AuthorID: "renter-1", Rating: 5, Scores: Scores{Value: 4}, Recommend: true, Comment: "  great  ", CreatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "great", r.Comment)
	require.Len(t, r.PendingEvents(), 1)
	assert.Equal(t, "review.created", r.PendingEvents()[0].EventName())
}

func TestReplyOnlyOwnerOnce(t *testing.T) {
	r, err := Submit(SubmitParams{ID: "rv-1", PropertyID: prop.ID, AuthorID: "renter-1", Rating: 5, CreatedAt: now})
	require.NoError(t, err)

	err = r.Reply(user.Actor{ID: "renter-1"}, prop, "thanks", now)
	assert.True(t, errors.Is(err, failure.ErrPermission))

	require.NoError(t, r.Reply(user.Actor{ID: "owner-1", Role: user.RoleOwner}, prop, "thanks", now))
	assert.Equal(t, "thanks", r.OwnerReply)
	require.NotNil(t, r.ReplyAt)

	err = r.Reply(user.Actor{ID: "owner-1", Role: user.RoleOwner}, prop, "again", now)
	fe, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, failure.CodeAlreadyReplied, fe.Code)
}
