package middleware

import (
	"context"
	"slices"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/queries"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/user"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// Principaled messages carry the actor they run for.
type Principaled interface {
	Principal() user.Actor
}

// RoleRestricted messages accept only the listed roles.
type RoleRestricted interface {
	AllowedRoles() []user.Role
}

// RoleAuthorizer requires an identified actor on every principaled message and
// enforces AllowedRoles when declared. Ownership checks stay in the domain.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(_ context.Context, message any) error {
	p, ok := message.(Principaled)
	if !ok {
		return nil
	}
	actor := p.Principal()
	if actor.ID == "" {
		return failure.Permission("authentication required")
	}
	if rr, ok := message.(RoleRestricted); ok {
		if roles := rr.AllowedRoles(); len(roles) > 0 && !slices.Contains(roles, actor.Role) {
			return failure.Permission("role %s may not perform this action", actor.Role)
		}
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
