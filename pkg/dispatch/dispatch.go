package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/chris/stk-confirmation/pkg/confirmation"
	"github.com/chris/stk-confirmation/pkg/models"
)

// Resolver applies an outcome to a session's record.
type Resolver interface {
	Resolve(ctx context.Context, sessionID string, outcome models.Outcome) (*confirmation.Result, error)
}

// Dispatcher hands a webhook outcome to the reconciler, either directly or through a queue.
type Dispatcher interface {
	Dispatch(ctx context.Context, outcome models.Outcome) error
}

// InlineDispatcher resolves outcomes on the caller's goroutine.
type InlineDispatcher struct {
	resolver Resolver
	timeout  time.Duration
}

// NewInlineDispatcher creates an InlineDispatcher. timeout bounds each resolution.
func NewInlineDispatcher(resolver Resolver, timeout time.Duration) *InlineDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &InlineDispatcher{resolver: resolver, timeout: timeout}
}

var _ Dispatcher = (*InlineDispatcher)(nil)

// Dispatch resolves the outcome. The gateway hanging up does not abandon a resolution in progress.
func (d *InlineDispatcher) Dispatch(ctx context.Context, outcome models.Outcome) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if _, err := d.resolver.Resolve(ctx, outcome.SessionId, outcome); err != nil {
		return fmt.Errorf("failed to resolve outcome: %w", err)
	}
	return nil
}
