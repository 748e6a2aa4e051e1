package reviews

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/dto"
	handlersupport "babiloc/internal/app/handlers/support"
	"babiloc/internal/app/outbox"
	"babiloc/internal/app/uow"
	domainbooking "babiloc/internal/domain/booking"
	domainproperty "babiloc/internal/domain/property"
	domainreviews "babiloc/internal/domain/reviews"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/user"
)

const submitReviewKey = "reviews.submit"

// SubmitReviewCommand posts a review for a property. ReservationID is optional; when set it
// must name one of the author's completed stays at that property.
type SubmitReviewCommand struct {
	Actor         user.Actor
	PropertyID    string `validate:"required"`
	ReservationID string
	Rating        int    `validate:"gte=1,lte=5"`
	Cleanliness   int    `validate:"omitempty,gte=1,lte=5"`
	Accuracy      int    `validate:"omitempty,gte=1,lte=5"`
	Communication int    `validate:"omitempty,gte=1,lte=5"`
	Location      int    `validate:"omitempty,gte=1,lte=5"`
	Value         int    `validate:"omitempty,gte=1,lte=5"`
	Recommend     bool
	Comment       string `validate:"max=4000"`
}

func (c SubmitReviewCommand) Key() string           { return submitReviewKey }
func (c SubmitReviewCommand) Principal() user.Actor { return c.Actor }

type SubmitReviewHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	NewID      func() string
	Logger     *slog.Logger
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (dto.ReviewCreated, error) {
	unit, ctx, tx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCreated{}, err
	}
	defer tx.Close(ctx)

	prop, err := unit.Properties().ByID(ctx, domainproperty.ID(cmd.PropertyID))
	if err != nil {
		return dto.ReviewCreated{}, handlersupport.NotFound(err, domainproperty.ErrNotFound, "property %s not found", cmd.PropertyID)
	}

	gate := domainreviews.Gate{Reviews: unit.Reviews(), Reservations: unit.Reservations()}
	verdict, err := gate.CanReview(ctx, cmd.Actor.ID, prop)
	if err != nil {
		return dto.ReviewCreated{}, err
	}
	if err := verdict.Err(); err != nil {
		return dto.ReviewCreated{}, err
	}
	reservationID := verdict.ReservationID
	if cmd.ReservationID != "" {
		if err := h.checkStay(ctx, unit, cmd); err != nil {
			return dto.ReviewCreated{}, err
		}
		reservationID = domainbooking.ReservationID(cmd.ReservationID)
	}

	now := handlersupport.Clock(h.Now)
	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:            domainreviews.ReviewID(h.newID()),
		PropertyID:    prop.ID,
		AuthorID:      cmd.Actor.ID,
		ReservationID: reservationID,
		Rating:        cmd.Rating,
		Scores: domainreviews.Scores{
			Cleanliness:   cmd.Cleanliness,
			Accuracy:      cmd.Accuracy,
			Communication: cmd.Communication,
			Location:      cmd.Location,
			Value:         cmd.Value,
		},
		Recommend: cmd.Recommend,
		Comment:   cmd.Comment,
		CreatedAt: now,
	})
	if err != nil {
		return dto.ReviewCreated{}, failure.Validation(failure.CodeInvalidInput, "%s", err.Error())
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		if errors.Is(err, domainreviews.ErrAlreadyExists) {
			return dto.ReviewCreated{}, failure.Eligibility(failure.CodeAlreadyReviewed, "already reviewed")
		}
		return dto.ReviewCreated{}, err
	}
	prop.ApplyRating(review.Rating, now)
	if err := unit.Properties().Save(ctx, prop); err != nil {
		return dto.ReviewCreated{}, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, review); err != nil {
		return dto.ReviewCreated{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return dto.ReviewCreated{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("review submitted", "review_id", review.ID, "property_id", prop.ID, "author_id", cmd.Actor.ID, "rating", review.Rating)
	}
	return dto.ReviewCreated{ReviewID: string(review.ID)}, nil
}

func (h *SubmitReviewHandler) checkStay(ctx context.Context, unit uow.UnitOfWork, cmd SubmitReviewCommand) error {
	r, err := unit.Reservations().ByID(ctx, domainbooking.ReservationID(cmd.ReservationID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrNotFound) {
			return failure.Eligibility(failure.CodeNoCompletedStay, "no completed stay")
		}
		return err
	}
	if r.RenterID != cmd.Actor.ID || string(r.PropertyID) != cmd.PropertyID || r.Status != domainbooking.StatusCompleted {
		return failure.Eligibility(failure.CodeNoCompletedStay, "no completed stay").WithReservation(string(r.ID))
	}
	return nil
}

func (h *SubmitReviewHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

var _ commands.Handler[SubmitReviewCommand, dto.ReviewCreated] = (*SubmitReviewHandler)(nil)
