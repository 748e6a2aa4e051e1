package middleware

import (
	"context"
	"fmt"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/uow"
)

// Transaction runs the rest of the pipeline inside a write unit of work and
// commits on success. A command dispatched while a unit is already bound to
// ctx joins that unit and leaves the commit to its owner.
func Transaction(factory uow.UoWFactory) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if _, ok := uow.FromContext(ctx); ok {
				return nextFn(ctx, cmd)
			}
			unit, err := factory.Begin(ctx, uow.TxOptions{})
			if err != nil {
				return nil, fmt.Errorf("middleware: begin unit for %s: %w", cmd.Key(), err)
			}
			execCtx := uow.Bind(ctx, unit)
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			// uow.ErrConflict stays matchable for RetryOnConflict.
			if err := unit.Commit(execCtx); err != nil {
				return nil, fmt.Errorf("middleware: commit %s: %w", cmd.Key(), err)
			}
			committed = true
			return res, nil
		})
	}
}
