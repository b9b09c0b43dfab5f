package middleware

import (
	"context"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/outbox"
)

// OutboxFlush nudges the outbox once a command has succeeded. It must sit outside
// Transaction so that records staged by the unit of work are visible when it runs.
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
				return nil, err
			}
			return res, nil
		})
	}
}
