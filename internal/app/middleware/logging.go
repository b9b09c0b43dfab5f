package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staydesk/internal/app/commands"
	"staydesk/internal/domain/scheduling"
)

// Logging records every command with its duration. Expected rejections are logged at
// info or warn; invariant violations and unclassified errors at error.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			attrs := []any{"command", cmd.Key(), "duration", time.Since(start)}
			if err == nil {
				logger.InfoContext(ctx, "command handled", attrs...)
				return res, nil
			}
			attrs = append(attrs, "error", err)
			var conflict *scheduling.ConflictError
			switch {
			case errors.As(err, &conflict):
				attrs = append(attrs, "source", conflict.Result.Source, "unit", conflict.Result.Candidate.Unit)
				if conflict.Result.Offending != nil {
					attrs = append(attrs, "offending", conflict.Result.Offending.Ref())
				}
				logger.WarnContext(ctx, "overlap prevented", attrs...)
			case errors.Is(err, scheduling.ErrValidation), errors.Is(err, scheduling.ErrNotFound):
				logger.InfoContext(ctx, "command rejected", attrs...)
			case errors.Is(err, scheduling.ErrInvariant):
				logger.ErrorContext(ctx, "invariant violation", attrs...)
			default:
				logger.ErrorContext(ctx, "command failed", attrs...)
			}
			return nil, err
		})
	}
}
