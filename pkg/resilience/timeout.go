package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/irkit/pkg/errors"
)

// WithTimeout bounds fn by timeout. Overrunning yields an ErrTimeout error
// while fn is left to observe its cancelled context; cancellation of the
// parent is reported as such. A non-positive timeout runs fn inline.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	deadline := apperrors.Newf(apperrors.ErrTimeout, apperrors.ExitFailure, "%s exceeded %v", name, timeout)
	bounded, cancel := context.WithTimeoutCause(ctx, timeout, deadline)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- fn(bounded) }()

	select {
	case err := <-result:
		return err
	case <-bounded.Done():
	}
	if cause := context.Cause(bounded); errors.Is(cause, apperrors.ErrTimeout) {
		return cause
	}
	return fmt.Errorf("%s: %w", name, ctx.Err())
}
