package availability

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
	domainavailability "babiloc/internal/domain/availability"
	domainproperty "babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/user"
)

const (
	addWindowKey    = "availability.window.add"
	removeWindowKey = "availability.window.remove"
	listWindowsKey  = "availability.window.list"
)

type AddWindowCommand struct {
	Actor      user.Actor
	PropertyID string    `validate:"required"`
	Weekday    int       `validate:"gte=0,lte=6"`
	ValidFrom  time.Time `validate:"required"`
	ValidTo    time.Time `validate:"required"`
}

func (c AddWindowCommand) Key() string           { return addWindowKey }
func (c AddWindowCommand) Principal() user.Actor { return c.Actor }

type RemoveWindowCommand struct {
	Actor      user.Actor
	PropertyID string `validate:"required"`
	WindowID   string `validate:"required"`
}

func (c RemoveWindowCommand) Key() string           { return removeWindowKey }
func (c RemoveWindowCommand) Principal() user.Actor { return c.Actor }

type ListWindowsQuery struct {
	PropertyID string
}

func (q ListWindowsQuery) Key() string { return listWindowsKey }

// WindowsHandler manages the recurring weekly availability rules of a property.
type WindowsHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
	NewID      func() string
	Logger     *slog.Logger
}

func (h *WindowsHandler) Add() commands.Handler[AddWindowCommand, dto.Window] {
	return commands.HandlerFunc[AddWindowCommand, dto.Window](func(ctx context.Context, cmd AddWindowCommand) (dto.Window, error) {
		unit, ctx, tx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.Window{}, err
		}
		defer tx.Close(ctx)

		if _, err := h.managedProperty(ctx, unit, cmd.Actor, cmd.PropertyID); err != nil {
			return dto.Window{}, err
		}
		w, err := domainavailability.NewWindow(domainavailability.WindowParams{
			ID:         domainavailability.WindowID(h.newID()),
			PropertyID: domainproperty.ID(cmd.PropertyID),
			Weekday:    cmd.Weekday,
			ValidFrom:  cmd.ValidFrom,
			ValidTo:    cmd.ValidTo,
			CreatedAt:  handlersupport.Clock(h.Now),
		})
		if err != nil {
			return dto.Window{}, failure.Validation(failure.CodeInvalidInput, "%s", err.Error())
		}
		if err := unit.Availability().Save(ctx, w); err != nil {
			return dto.Window{}, err
		}
		if err := outbox.Drain(ctx, h.Outbox, h.Encoder, w); err != nil {
			return dto.Window{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return dto.Window{}, err
		}
		if h.Logger != nil {
			h.Logger.Info("availability window added", "property_id", cmd.PropertyID, "window_id", w.ID, "weekday", w.Weekday)
		}
		return dto.MapWindow(w), nil
	})
}

func (h *WindowsHandler) Remove() commands.Handler[RemoveWindowCommand, dto.Window] {
	return commands.HandlerFunc[RemoveWindowCommand, dto.Window](func(ctx context.Context, cmd RemoveWindowCommand) (dto.Window, error) {
		unit, ctx, tx, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.Window{}, err
		}
		defer tx.Close(ctx)

		if _, err := h.managedProperty(ctx, unit, cmd.Actor, cmd.PropertyID); err != nil {
			return dto.Window{}, err
		}
		w, err := unit.Availability().ByID(ctx, domainavailability.WindowID(cmd.WindowID))
		if err != nil || string(w.PropertyID) != cmd.PropertyID {
			if err == nil {
				err = domainavailability.ErrWindowNotFound
			}
			return dto.Window{}, handlersupport.NotFound(err, domainavailability.ErrWindowNotFound, "window %s not found", cmd.WindowID)
		}
		w.MarkRemoved(handlersupport.Clock(h.Now))
		if err := unit.Availability().Delete(ctx, w); err != nil {
			return dto.Window{}, err
		}
		if err := outbox.Drain(ctx, h.Outbox, h.Encoder, w); err != nil {
			return dto.Window{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return dto.Window{}, err
		}
		return dto.MapWindow(w), nil
	})
}

func (h *WindowsHandler) List() queries.Handler[ListWindowsQuery, dto.WindowCollection] {
	return queries.HandlerFunc[ListWindowsQuery, dto.WindowCollection](func(ctx context.Context, q ListWindowsQuery) (dto.WindowCollection, error) {
		unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.WindowCollection{}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		items, err := unit.Availability().ListByProperty(ctx, domainproperty.ID(q.PropertyID))
		if err != nil {
			return dto.WindowCollection{}, err
		}
		return dto.MapWindows(q.PropertyID, items), nil
	})
}

func (h *WindowsHandler) managedProperty(ctx context.Context, unit uow.UnitOfWork, actor user.Actor, id string) (*domainproperty.Property, error) {
	prop, err := unit.Properties().ByID(ctx, domainproperty.ID(id))
	if err != nil {
		return nil, handlersupport.NotFound(err, domainproperty.ErrNotFound, "property %s not found", id)
	}
	if !prop.CanManage(actor) {
		return nil, failure.Permission("only the owner or an admin may manage availability of %s", prop.ID)
	}
	return prop, nil
}

func (h *WindowsHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}
