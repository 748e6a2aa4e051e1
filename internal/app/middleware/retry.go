package middleware

import (
	"context"
	"errors"
	"log/slog"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/uow"
	"babiloc/internal/domain/shared/failure"
)

// ConflictCoded lets a command name the failure code reported when retries are exhausted.
type ConflictCoded interface {
	ConflictCode() string
}

// RetryOnConflict re-runs the inner pipeline once when a concurrent writer won
// (uow.ErrConflict). It must wrap Transaction so the retry starts a fresh unit.
// A second loss is reported as a conflict failure, never as an internal error.
func RetryOnConflict(logger *slog.Logger) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err == nil || !errors.Is(err, uow.ErrConflict) {
				return res, err
			}
			if logger != nil {
				logger.Info("retrying command after concurrent write", "command", cmd.Key())
			}
			res, err = nextFn(ctx, cmd)
			if err == nil || !errors.Is(err, uow.ErrConflict) {
				return res, err
			}
			code := failure.CodeConcurrentUpdate
			if cc, ok := cmd.(ConflictCoded); ok {
				code = cc.ConflictCode()
			}
			return nil, failure.Conflict(code, "concurrent modification, try again")
		})
	}
}
