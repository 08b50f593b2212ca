package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/njchilds90/latexcalc/internal/calcerr"
)

// ============================================================
// Guard
// ============================================================

// guard runs fn on its own goroutine under the configured deadline. A panic
// inside fn becomes a ValidationError. When the deadline passes first the
// caller gets a TimeoutError and fn's result is discarded; fn sees the
// cancelled context and is expected to return soon after.
func guard[T any](ctx context.Context, a *Adapter, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return zero, timeoutError(op, err, a)
	}

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.log.Warn("recovered engine panic", zap.String("op", op), zap.Any("panic", r))
				done <- outcome{err: calcerr.New(calcerr.KindValidation, calcerr.StageEngine, "%s failed: %v", op, r)}
			}
		}()
		v, err := fn(ctx)
		done <- outcome{val: v, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return zero, out.err
		}
		return out.val, nil
	case <-ctx.Done():
		return zero, timeoutError(op, ctx.Err(), a)
	}
}

func timeoutError(op string, cause error, a *Adapter) error {
	if errors.Is(cause, context.DeadlineExceeded) {
		a.log.Debug("engine deadline exceeded", zap.String("op", op), zap.Duration("timeout", a.cfg.Timeout))
		return &calcerr.Error{
			Kind:   calcerr.KindTimeout,
			Stage:  calcerr.StageEngine,
			Msg:    fmt.Sprintf("%s did not finish within %s", op, a.cfg.Timeout),
			Offset: -1,
			Err:    cause,
		}
	}
	return &calcerr.Error{
		Kind:   calcerr.KindTimeout,
		Stage:  calcerr.StageEngine,
		Msg:    op + " was cancelled",
		Offset: -1,
		Err:    cause,
	}
}

// checkpoint is polled by long numeric loops.
func checkpoint(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
