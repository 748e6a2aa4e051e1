package middleware

import (
	"context"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/queries"
	"babiloc/internal/domain/shared/failure"
)

type Validator interface {
	Validate(ctx context.Context, message any) error
}

// Validation rejects malformed commands before a unit of work is opened.
// Whatever the validator returns surfaces as a validation failure.
func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := validate(ctx, v, cmd.Key(), cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := validate(ctx, v, q.Key(), q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}

func validate(ctx context.Context, v Validator, key string, message any) error {
	err := v.Validate(ctx, message)
	if err == nil {
		return nil
	}
	if fe, ok := failure.As(err); ok && fe.Kind == failure.KindValidation {
		return err
	}
	return failure.Validation(failure.CodeInvalidInput, "%s: %v", key, err)
}
