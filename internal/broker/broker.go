package broker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/6ixisgood/tbot/internal/strategy"
	"github.com/6ixisgood/tbot/internal/venue"
	"go.uber.org/zap"
)

// Shortfall names one venue/currency whose free balance is below the
// aggregated requirement.
type Shortfall struct {
	Venue    string
	Currency string
	Required float64
	Free     float64
}

// ShortfallError aborts startup; it lists every shortfall found so the
// operator sees the full picture at once.
type ShortfallError struct {
	Shortfalls []Shortfall
}

func (e *ShortfallError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s %s: need %.8f, free %.8f",
			s.Venue, s.Currency, s.Required, s.Free))
	}
	return "insufficient funds: " + strings.Join(parts, "; ")
}

// Broker gates and drives the configured strategies. It is the only
// component that reasons across strategies: funds are aggregated per
// venue and currency before any run loop starts, and are not re-checked
// while running.
type Broker struct {
	strategies []strategy.Strategy
	log        *zap.Logger
}

func New(strategies []strategy.Strategy, log *zap.Logger) *Broker {
	return &Broker{strategies: strategies, log: log}
}

type requirement struct {
	venue  venue.Venue
	needed map[string]float64
}

// requiredFunds sums each currency's requirement per venue across all
// strategies.
func (b *Broker) requiredFunds() map[string]*requirement {
	out := make(map[string]*requirement)
	for _, s := range b.strategies {
		v := s.Venue()
		req := out[v.Name()]
		if req == nil {
			req = &requirement{venue: v, needed: make(map[string]float64)}
			out[v.Name()] = req
		}
		for cur, amt := range s.RequiredFunds() {
			req.needed[cur] += amt
		}
	}
	return out
}

// CheckFunds verifies every aggregated requirement against the venue's
// free balance. All shortfalls are collected into one error.
func (b *Broker) CheckFunds(ctx context.Context) error {
	var shortfalls []Shortfall
	for name, req := range b.requiredFunds() {
		for cur, needed := range req.needed {
			free, err := req.venue.FreeBalance(ctx, cur)
			if err != nil {
				return fmt.Errorf("balance query %s/%s: %w", name, cur, err)
			}
			if free < needed {
				shortfalls = append(shortfalls, Shortfall{
					Venue:    name,
					Currency: cur,
					Required: needed,
					Free:     free,
				})
			}
		}
	}
	if len(shortfalls) > 0 {
		return &ShortfallError{Shortfalls: shortfalls}
	}
	return nil
}

// Run refuses to start on any fund shortfall, then drives every strategy
// in its own goroutine until ctx is canceled or a strategy fails
// fatally. The first fatal error cancels the rest.
func (b *Broker) Run(ctx context.Context) error {
	if len(b.strategies) == 0 {
		return fmt.Errorf("no strategies configured")
	}
	if err := b.CheckFunds(ctx); err != nil {
		return fmt.Errorf("pre-flight funds check: %w", err)
	}
	b.log.Info("funds check passed", zap.Int("strategies", len(b.strategies)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(b.strategies))
	for _, s := range b.strategies {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.log.Info("strategy starting", zap.String("strategy", s.Name()))
			if err := s.Run(ctx); err != nil {
				errCh <- fmt.Errorf("strategy %s: %w", s.Name(), err)
				cancel()
			}
		}()
	}
	wg.Wait()
	close(errCh)
	return <-errCh
}
