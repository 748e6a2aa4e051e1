package middleware

import (
	"context"
	"fmt"

	"babiloc/internal/app/commands"
	"babiloc/internal/app/outbox"
)

// OutboxFlush hands the events a command staged to the outbox while its unit
// is still open, so a failed flush rolls the whole command back.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, fmt.Errorf("middleware: flush outbox for %s: %w", cmd.Key(), err)
			}
			return res, nil
		})
	}
}
