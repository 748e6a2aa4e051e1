package reviews

import (
	"context"
	"log/slog"
	"time"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/dto"
	handlersupport "babiloc/internal/app/handlers/support"
	"babiloc/internal/app/outbox"
	"babiloc/internal/app/uow"
	domainproperty "babiloc/internal/domain/property"
	domainreviews "babiloc/internal/domain/reviews"
	"babiloc/internal/domain/user"
)

const replyReviewKey = "reviews.reply"

type ReplyReviewCommand struct {
	Actor    user.Actor
	ReviewID string `validate:"required"`
	Text     string `validate:"required,max=2000"`
}

func (c ReplyReviewCommand) Key() string           { return replyReviewKey }
func (c ReplyReviewCommand) Principal() user.Actor { return c.Actor }

// ReplyReviewHandler stores the owner's one reply to a review.
type ReplyReviewHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *ReplyReviewHandler) Handle(ctx context.Context, cmd ReplyReviewCommand) (dto.Review, error) {
	unit, ctx, tx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Review{}, err
	}
	defer tx.Close(ctx)

	review, err := unit.Reviews().ByID(ctx, domainreviews.ReviewID(cmd.ReviewID))
	if err != nil {
		return dto.Review{}, handlersupport.NotFound(err, domainreviews.ErrNotFound, "review %s not found", cmd.ReviewID)
	}
	prop, err := unit.Properties().ByID(ctx, review.PropertyID)
	if err != nil {
		return dto.Review{}, handlersupport.NotFound(err, domainproperty.ErrNotFound, "property %s not found", review.PropertyID)
	}
	if err := review.Reply(cmd.Actor, prop, cmd.Text, handlersupport.Clock(h.Now)); err != nil {
		return dto.Review{}, err
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return dto.Review{}, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, review); err != nil {
		return dto.Review{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return dto.Review{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("review replied", "review_id", review.ID, "property_id", review.PropertyID)
	}
	return dto.MapReview(review), nil
}

var _ commands.Handler[ReplyReviewCommand, dto.Review] = (*ReplyReviewHandler)(nil)
