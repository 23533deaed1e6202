package triangle

import (
	"errors"
	"fmt"

	"github.com/6ixisgood/tbot/internal/book"
)

var errNoSnapshot = errors.New("no snapshot")

// Validate simulates the cycle leg by leg to check that tradeUnit of the
// starting currency clears every market's minimum order size and cost at
// the book's current prices. It runs immediately before execution, since
// live prices move the feasible trade size. A nil return means the cycle
// is executable for this amount; otherwise the error names the first leg
// that fails.
func Validate(c *Cycle, b *book.Table, tradeUnit float64) error {
	funds := tradeUnit
	for i, leg := range c.Legs {
		snap, ok := b.Get(leg.Market.ID)
		if !ok {
			return fmt.Errorf("leg %d %s: %w", i, leg.Market.Symbol, errNoSnapshot)
		}
		m := leg.Market
		if leg.Side == Buy {
			if snap.Ask == 0 {
				return fmt.Errorf("leg %d %s: zero ask", i, m.Symbol)
			}
			if funds/snap.Ask < m.MinAmount {
				return fmt.Errorf("leg %d %s: %.8f below min amount %.8f", i, m.Symbol, funds/snap.Ask, m.MinAmount)
			}
			if funds < m.MinCost {
				return fmt.Errorf("leg %d %s: cost %.8f below min cost %.8f", i, m.Symbol, funds, m.MinCost)
			}
			funds /= snap.Ask
		} else {
			if funds*snap.Bid < m.MinCost {
				return fmt.Errorf("leg %d %s: cost %.8f below min cost %.8f", i, m.Symbol, funds*snap.Bid, m.MinCost)
			}
			if funds < m.MinAmount {
				return fmt.Errorf("leg %d %s: %.8f below min amount %.8f", i, m.Symbol, funds, m.MinAmount)
			}
			funds *= snap.Bid
		}
	}
	return nil
}
