package reviews

import (
	"context"
	"log/slog"

	"babiloc/internal/app/dto"
	handlersupport "babiloc/internal/app/handlers/support"
	"babiloc/internal/app/queries"
	"babiloc/internal/app/uow"
	domainproperty "babiloc/internal/domain/property"
	domainreviews "babiloc/internal/domain/reviews"
	"babiloc/internal/domain/user"
)

const (
	eligibilityKey  = "reviews.eligibility"
	listReviewsKey  = "reviews.property.list"
	defaultPageSize = 20
	maxPageSize     = 100
)

type EligibilityQuery struct {
	Actor      user.Actor
	PropertyID string
}

func (q EligibilityQuery) Key() string           { return eligibilityKey }
func (q EligibilityQuery) Principal() user.Actor { return q.Actor }

type ListReviewsQuery struct {
	PropertyID string
	Limit      int
	Offset     int
}

func (q ListReviewsQuery) Key() string { return listReviewsKey }

type QueryHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *QueryHandler) Eligibility() queries.Handler[EligibilityQuery, dto.Eligibility] {
	return queries.HandlerFunc[EligibilityQuery, dto.Eligibility](func(ctx context.Context, q EligibilityQuery) (dto.Eligibility, error) {
		unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.Eligibility{}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		prop, err := unit.Properties().ByID(ctx, domainproperty.ID(q.PropertyID))
		if err != nil {
			return dto.Eligibility{}, handlersupport.NotFound(err, domainproperty.ErrNotFound, "property %s not found", q.PropertyID)
		}
		gate := domainreviews.Gate{Reviews: unit.Reviews(), Reservations: unit.Reservations()}
		verdict, err := gate.CanReview(ctx, q.Actor.ID, prop)
		if err != nil {
			return dto.Eligibility{}, err
		}
		return dto.MapEligibility(verdict), nil
	})
}

func (h *QueryHandler) List() queries.Handler[ListReviewsQuery, dto.ReviewCollection] {
	return queries.HandlerFunc[ListReviewsQuery, dto.ReviewCollection](func(ctx context.Context, q ListReviewsQuery) (dto.ReviewCollection, error) {
		limit := normalizeLimit(q.Limit)
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.ReviewCollection{}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		propertyID := domainproperty.ID(q.PropertyID)
		if _, err := unit.Properties().ByID(ctx, propertyID); err != nil {
			return dto.ReviewCollection{}, handlersupport.NotFound(err, domainproperty.ErrNotFound, "property %s not found", q.PropertyID)
		}
		all, err := unit.Reviews().ListByProperty(ctx, propertyID, 0, 0)
		if err != nil {
			return dto.ReviewCollection{}, err
		}
		total := len(all)
		end := total
		if offset+limit < end {
			end = offset + limit
		}
		if offset > end {
			offset = end
		}
		items := make([]dto.Review, 0, end-offset)
		for _, review := range all[offset:end] {
			items = append(items, dto.MapReview(review))
		}
		if h.Logger != nil {
			h.Logger.Debug("property reviews listed", "property_id", propertyID, "count", len(items), "total", total)
		}
		return dto.ReviewCollection{Items: items, Total: total}, nil
	})
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
