package toolbake

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps a Handler with cross-cutting behavior (logging, recovery,
// timeout). Platform.Use installs a chain applied to the handler closure of
// every subsequently opened instance.
type Middleware func(Handler) Handler

// WithLogging returns a middleware that logs invocation start, end, duration,
// and errors.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, inv Invocation, push func(Values) error) (Result, error) {
			logger.Info("invocation start", "trigger", triggerLabel(inv.Trigger))
			start := time.Now()
			res, err := next(ctx, inv, push)
			dur := time.Since(start)
			if err != nil {
				logger.Error("invocation error", "trigger", triggerLabel(inv.Trigger), "duration", dur, "error", err)
				return res, err
			}
			logger.Info("invocation end", "trigger", triggerLabel(inv.Trigger), "duration", dur)
			return res, nil
		}
	}
}

func triggerLabel(trigger string) string {
	if trigger == TriggerInit {
		return "<init>"
	}
	return trigger
}

// WithRecovery returns a middleware that recovers handler panics and returns
// them as an error. Redundant when the platform's own recovery is on
// (WithRecoverPanics, the default); use it to recover closer to the handler
// when platform recovery is disabled.
func WithRecovery() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, inv Invocation, push func(Values) error) (res Result, err error) {
			defer func() {
				if p := recover(); p != nil {
					res = Result{}
					err = &panicError{p: p}
				}
			}()
			return next(ctx, inv, push)
		}
	}
}

// WithTimeoutMiddleware returns a middleware that bounds the handler body
// with its own timeout. Named with "Middleware" suffix to avoid collision
// with the ToolOption WithTimeout. When both apply, the effective timeout is
// the minimum of the two (inner context cancels first).
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, inv Invocation, push func(Values) error) (Result, error) {
			if d <= 0 {
				return next(ctx, inv, push)
			}
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, inv, push)
		}
	}
}
