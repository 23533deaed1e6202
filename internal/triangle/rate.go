package triangle

import (
	"time"

	"github.com/6ixisgood/tbot/internal/book"
)

// NetRate computes the net expected return of executing the cycle at the
// book's current prices:
//
//	product = Π (ask if buy else 1/bid)
//	rate    = 1 - product - feeRate
//
// rate > 0 means the three legs return more of the starting currency
// than was spent, net of fees. ok is false when any leg's snapshot is
// missing or older than maxAge (0 disables the cutoff), a sell leg has a
// zero bid, or the product collapses to zero; an undefined rate must
// never be read as profitable.
func NetRate(c *Cycle, b *book.Table, feeRate float64, maxAge time.Duration) (rate float64, ok bool) {
	now := time.Now()
	product := 1.0
	for _, leg := range c.Legs {
		snap, have := b.Get(leg.Market.ID)
		if !have {
			return 0, false
		}
		if maxAge > 0 && now.Sub(snap.Ts) > maxAge {
			return 0, false
		}
		if leg.Side == Buy {
			product *= snap.Ask
		} else {
			if snap.Bid == 0 {
				return 0, false
			}
			product *= 1 / snap.Bid
		}
	}
	if product == 0 {
		return 0, false
	}
	return 1 - product - feeRate, true
}
