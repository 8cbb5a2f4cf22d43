package translation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const (
	breakerConsecutiveFailures = 5
	breakerOpenTimeout         = 30 * time.Second
	breakerHalfOpenRequests    = 1
)

// BreakerProvider fails fast while the wrapped provider keeps failing. An open
// breaker surfaces as the same RequestFailed error a live failure would; nothing
// is retried.
type BreakerProvider struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
}

func NewBreakerProvider(provider Provider, logger zerolog.Logger) *BreakerProvider {
	name := provider.Name()
	return &BreakerProvider{
		provider: provider,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: breakerHalfOpenRequests,
			Timeout:     breakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerConsecutiveFailures
			},
			IsSuccessful: func(err error) bool {
				// Only provider faults count; blank text or a caller giving up does not.
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return true
				}
				return err == nil || !errors.Is(err, ErrRequestFailed)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().
					Str("provider", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("translation provider breaker state changed")
			},
		}),
	}
}

func (p *BreakerProvider) Name() string {
	return p.provider.Name()
}

func (p *BreakerProvider) SupportedLanguages() []string {
	return p.provider.SupportedLanguages()
}

// Unwrap returns the provider behind the breaker.
func (p *BreakerProvider) Unwrap() Provider {
	return p.provider
}

func (p *BreakerProvider) Translate(ctx context.Context, req ProviderRequest) (*ProviderResponse, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.provider.Translate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, requestFailed(p.Name(), 0, err)
		}
		return nil, err
	}
	resp, _ := out.(*ProviderResponse)
	return resp, nil
}
