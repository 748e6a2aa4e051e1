package pricing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/dto"
	handlersupport "babiloc/internal/app/handlers/support"
	"babiloc/internal/app/uow"
	domainpricing "babiloc/internal/domain/pricing"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/user"
)

const createPromoKey = "pricing.promo.create"

type CreatePromoCommand struct {
	Actor     user.Actor
	Code      string `validate:"required,max=64"`
	Kind      string `validate:"required,oneof=percent fixed"`
	Value     int64  `validate:"gt=0"`
	Currency  string `validate:"omitempty,len=3"`
	Threshold int64  `validate:"gte=0"`
	ExpiresAt time.Time
}

func (c CreatePromoCommand) Key() string               { return createPromoKey }
func (c CreatePromoCommand) Principal() user.Actor     { return c.Actor }
func (c CreatePromoCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleAdmin} }

type CreatePromoHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *CreatePromoHandler) Handle(ctx context.Context, cmd CreatePromoCommand) (dto.Promo, error) {
	if !cmd.Actor.IsAdmin() {
		return dto.Promo{}, failure.Permission("only admins manage promo codes")
	}
	promo, err := domainpricing.NewPromo(domainpricing.PromoParams{
		Code:      cmd.Code,
		Kind:      cmd.Kind,
		Value:     cmd.Value,
		Currency:  cmd.Currency,
		Threshold: cmd.Threshold,
		ExpiresAt: cmd.ExpiresAt,
		CreatedAt: handlersupport.Clock(h.Now),
	})
	if err != nil {
		return dto.Promo{}, failure.Validation(failure.CodeInvalidInput, "%s", err.Error())
	}
	unit, ctx, tx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Promo{}, err
	}
	defer tx.Close(ctx)

	if _, err := unit.Promos().ByCode(ctx, promo.Code); err == nil {
		return dto.Promo{}, failure.Conflict(failure.CodeDuplicate, "promo code %s already exists", promo.Code)
	} else if !errors.Is(err, domainpricing.ErrPromoNotFound) {
		return dto.Promo{}, err
	}
	if err := unit.Promos().Save(ctx, promo); err != nil {
		return dto.Promo{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return dto.Promo{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("promo code created", "code", promo.Code, "kind", promo.Kind)
	}
	return dto.MapPromo(promo), nil
}

var _ commands.Handler[CreatePromoCommand, dto.Promo] = (*CreatePromoHandler)(nil)
