package properties

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/dto"
	handlersupport "babiloc/internal/app/handlers/support"
	"babiloc/internal/app/outbox"
	"babiloc/internal/app/queries"
	"babiloc/internal/app/uow"
	domainproperty "babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/user"
)

const (
	createPropertyKey = "property.create"
	verifyPropertyKey = "property.verify"
	getPropertyKey    = "property.get"
)

type CreatePropertyCommand struct {
	Actor       user.Actor
	Title       string `validate:"required,max=200"`
	City        string `validate:"max=120"`
	Address     string `validate:"max=300"`
	Description string `validate:"max=5000"`
}

func (c CreatePropertyCommand) Key() string           { return createPropertyKey }
func (c CreatePropertyCommand) Principal() user.Actor { return c.Actor }

type VerifyPropertyCommand struct {
	Actor      user.Actor
	PropertyID string `validate:"required"`
}

func (c VerifyPropertyCommand) Key() string               { return verifyPropertyKey }
func (c VerifyPropertyCommand) Principal() user.Actor     { return c.Actor }
func (c VerifyPropertyCommand) AllowedRoles() []user.Role { return []user.Role{user.RoleAdmin} }

type GetPropertyQuery struct {
	PropertyID string
}

func (q GetPropertyQuery) Key() string { return getPropertyKey }

type Handler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	NewID      func() string
	Logger     *slog.Logger
}

func (h *Handler) Create() commands.Handler[CreatePropertyCommand, dto.Property] {
	return commands.HandlerFunc[CreatePropertyCommand, dto.Property](func(ctx context.Context, cmd CreatePropertyCommand) (dto.Property, error) {
		id := uuid.NewString()
		if h.NewID != nil {
			id = h.NewID()
		}
		prop, err := domainproperty.New(domainproperty.CreateParams{
			ID:          domainproperty.ID(id),
			OwnerID:     cmd.Actor.ID,
			Title:       cmd.Title,
			City:        cmd.City,
			Address:     cmd.Address,
			Description: cmd.Description,
			CreatedAt:   handlersupport.Clock(h.Now),
		})
		if err != nil {
			return dto.Property{}, failure.Validation(failure.CodeInvalidInput, "%s", err.Error())
		}
		return h.save(ctx, func(context.Context, uow.UnitOfWork) (*domainproperty.Property, error) { return prop, nil })
	})
}

func (h *Handler) Verify() commands.Handler[VerifyPropertyCommand, dto.Property] {
	return commands.HandlerFunc[VerifyPropertyCommand, dto.Property](func(ctx context.Context, cmd VerifyPropertyCommand) (dto.Property, error) {
		if !cmd.Actor.IsAdmin() {
			return dto.Property{}, failure.Permission("only admins verify properties")
		}
		return h.save(ctx, func(ctx context.Context, unit uow.UnitOfWork) (*domainproperty.Property, error) {
			prop, err := unit.Properties().ByID(ctx, domainproperty.ID(cmd.PropertyID))
			if err != nil {
				return nil, handlersupport.NotFound(err, domainproperty.ErrNotFound, "property %s not found", cmd.PropertyID)
			}
			prop.Verify(handlersupport.Clock(h.Now))
			return prop, nil
		})
	})
}

func (h *Handler) save(ctx context.Context, load func(context.Context, uow.UnitOfWork) (*domainproperty.Property, error)) (dto.Property, error) {
	unit, ctx, tx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Property{}, err
	}
	defer tx.Close(ctx)

	prop, err := load(ctx, unit)
	if err != nil {
		return dto.Property{}, err
	}
	if err := unit.Properties().Save(ctx, prop); err != nil {
		return dto.Property{}, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.Encoder, prop); err != nil {
		return dto.Property{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return dto.Property{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("property saved", "property_id", prop.ID, "owner_id", prop.OwnerID, "verified", prop.Verified)
	}
	return dto.MapProperty(prop), nil
}

func (h *Handler) Get() queries.Handler[GetPropertyQuery, dto.Property] {
	return queries.HandlerFunc[GetPropertyQuery, dto.Property](func(ctx context.Context, q GetPropertyQuery) (dto.Property, error) {
		unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.Property{}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		prop, err := unit.Properties().ByID(ctx, domainproperty.ID(q.PropertyID))
		if err != nil {
			return dto.Property{}, handlersupport.NotFound(err, domainproperty.ErrNotFound, "property %s not found", q.PropertyID)
		}
		return dto.MapProperty(prop), nil
	})
}
