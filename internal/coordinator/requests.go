package coordinator

import (
	"context"
	"fmt"
)

// Request is the closed set of messages the coordinator accepts.
type Request interface {
	coordinatorRequest() // marker method
}

// SelectionTranslate is a context action on selected text.
type SelectionTranslate struct {
	Text string
}

func (SelectionTranslate) coordinatorRequest() {}

// TranslateRequest is an explicit submit from a view. A blank Origin means manual.
type TranslateRequest struct {
	Text   string
	Origin string
}

func (TranslateRequest) coordinatorRequest() {}

// GetLatest asks for the stored result.
type GetLatest struct{}

func (GetLatest) coordinatorRequest() {}

// Dispatch handles req on its own goroutine and returns immediately. The
// returned channel receives exactly one Reply; callers that stop listening
// leave nothing blocked. Work started here keeps ctx's values but not its
// cancellation: a caller going away never aborts a translation that other
// views are waiting to see.
func (c *Coordinator) Dispatch(ctx context.Context, req Request) <-chan Reply {
	ctx = context.WithoutCancel(ctx)
	replies := make(chan Reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error().
					Str("request", fmt.Sprintf("%T", req)).
					Interface("panic", r).
					Msg("coordinator request panicked")
				replies <- failure(FailureInternal, MessageInternal)
			}
		}()
		replies <- c.Handle(ctx, req)
	}()
	return replies
}

// Handle runs req synchronously.
func (c *Coordinator) Handle(ctx context.Context, req Request) Reply {
	switch r := req.(type) {
	case SelectionTranslate:
		return c.HandleSelectionTranslate(ctx, r.Text)
	case TranslateRequest:
		return c.HandleTranslateRequest(ctx, r.Text, r.Origin)
	case GetLatest:
		return c.HandleGetLatest(ctx)
	default:
		return failure(FailureInternal, fmt.Sprintf("unsupported request %T", req))
	}
}
