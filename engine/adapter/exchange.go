package adapter

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ExchangeClient is the thin REST surface a live ExecAdapter needs; a
// venue-specific package implements it against the exchange's actual API.
type ExchangeClient interface {
	PlaceOrder(ctx context.Context, intent OrderIntent) (OrderResult, error)
	GetPosition(ctx context.Context, symbol string) (Position, error)
	GetAccount(ctx context.Context) (AccountState, error)
	CancelOrder(ctx context.Context, orderID string) (bool, error)
}

// ExchangeAdapter wraps an ExchangeClient with a circuit breaker and a
// token-bucket rate limiter, so a flapping venue degrades into fast
// REJECTED responses instead of hanging the bar loop. The adapter makes
// no retries of its own; a failed call is returned to the caller once.
type ExchangeAdapter struct {
	client  ExchangeClient
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	timeout time.Duration
}

// NewExchangeAdapter wires a breaker that trips after 3 consecutive
// failures or a >5% failure rate over a 20+ request window, grounded on
// the teacher's breaker policy (infra/breakers), plus a token-bucket
// limiter at ratePerSec with a burst of burst requests, grounded on the
// teacher's venue rate limiter middleware.
func NewExchangeAdapter(client ExchangeClient, ratePerSec float64, burst int, timeout time.Duration) *ExchangeAdapter {
	settings := gobreaker.Settings{
		Name:     "exec-adapter",
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
		},
	}
	return &ExchangeAdapter{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		timeout: timeout,
	}
}

func (a *ExchangeAdapter) Submit(ctx context.Context, intent OrderIntent) (OrderResult, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return OrderResult{Success: false, Error: ErrExecTimeout, Message: err.Error()}, nil
	}
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := a.breaker.Execute(func() (interface{}, error) {
		return a.client.PlaceOrder(cctx, intent)
	})
	if err != nil {
		if cctx.Err() != nil {
			return OrderResult{Success: false, Error: ErrExecTimeout, Message: err.Error()}, nil
		}
		return OrderResult{Success: false, Error: ErrRejected, Message: err.Error()}, nil
	}
	return out.(OrderResult), nil
}

func (a *ExchangeAdapter) CurrentPosition(ctx context.Context, symbol string) (Position, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return Position{}, err
	}
	return a.client.GetPosition(ctx, symbol)
}

func (a *ExchangeAdapter) AccountStateOf(ctx context.Context) (AccountState, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return AccountState{}, err
	}
	return a.client.GetAccount(ctx)
}

func (a *ExchangeAdapter) Cancel(ctx context.Context, orderID string) (bool, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return false, err
	}
	return a.client.CancelOrder(ctx, orderID)
}
