package strategy

import (
	"context"

	"github.com/6ixisgood/tbot/internal/venue"
)

// Strategy is what the broker drives: it declares the funds it needs up
// front and then runs until cancellation or a fatal error.
type Strategy interface {
	Name() string
	Venue() venue.Venue

	// RequiredFunds maps currency to the minimum free balance this
	// strategy needs on its venue before it may start.
	RequiredFunds() map[string]float64

	// Run performs the scan/execute loop. It returns nil on clean
	// cancellation and an error only on a fatal condition.
	Run(ctx context.Context) error
}
