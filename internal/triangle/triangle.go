package triangle

import (
	"strings"
	"time"

	"github.com/6ixisgood/tbot/internal/market"
)

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// DefaultCooldown is the minimum gap between two executions of the same
// cycle.
const DefaultCooldown = 10 * time.Second

// Leg is one trade within a cycle: a market, a fixed side, and the
// currencies the leg starts from and ends in. Side and market never
// change after creation; prices are re-read from the book each scan.
type Leg struct {
	Market market.Market
	Side   Side
	Start  string
	End    string
}

// NewLeg derives the side from the currency held going in: selling when
// held is the market's base, buying otherwise.
func NewLeg(m market.Market, held string) Leg {
	if m.Base == held {
		return Leg{Market: m, Side: Sell, Start: m.Base, End: m.Quote}
	}
	return Leg{Market: m, Side: Buy, Start: m.Quote, End: m.Base}
}

// Cycle is a closed three-leg sequence: leg[i].End == leg[i+1].Start and
// the last leg returns to the first leg's start currency.
type Cycle struct {
	Legs      [3]Leg
	Cooldown  time.Duration
	lastTrade time.Time
}

func NewCycle(a, b, c Leg) *Cycle {
	return &Cycle{Legs: [3]Leg{a, b, c}, Cooldown: DefaultCooldown}
}

// Key identifies a cycle by its ordered (market, side) triple.
func (c *Cycle) Key() string {
	var sb strings.Builder
	for i, leg := range c.Legs {
		if i > 0 {
			sb.WriteByte('>')
		}
		sb.WriteString(leg.Market.ID)
		sb.WriteByte(':')
		sb.WriteString(string(leg.Side))
	}
	return sb.String()
}

func (c *Cycle) String() string {
	var sb strings.Builder
	sb.WriteString(c.Legs[0].Start)
	for _, leg := range c.Legs {
		sb.WriteString("->")
		sb.WriteString(leg.End)
	}
	return sb.String()
}

// Ready reports whether the cooldown since the last execution has passed.
func (c *Cycle) Ready(now time.Time) bool {
	return now.Sub(c.lastTrade) >= c.Cooldown
}

// MarkTraded starts the cooldown clock.
func (c *Cycle) MarkTraded(now time.Time) { c.lastTrade = now }

// Symbols returns the distinct venue symbols the cycle trades on.
func (c *Cycle) Symbols() []string {
	out := make([]string, 0, 3)
	for _, leg := range c.Legs {
		out = append(out, leg.Market.ID)
	}
	return out
}

// Build enumerates every closed 3-leg cycle starting and ending at start,
// using one distinct market per hop. Cycles touching an inactive market
// or an excluded currency are dropped; the result is deduplicated by leg
// triple and otherwise in discovery order.
func Build(cat *market.Catalog, start string, exclude []string) []*Cycle {
	excluded := make(map[string]struct{}, len(exclude))
	for _, cur := range exclude {
		excluded[cur] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []*Cycle

	for _, m1 := range cat.MatchPairs(start) {
		a := NewLeg(m1, start)
		for _, m2 := range cat.MatchPairs(a.End) {
			if m2.Symbol == m1.Symbol {
				continue
			}
			b := NewLeg(m2, a.End)
			for _, m3 := range cat.MatchPairs(b.End, start) {
				if m3.Symbol == m1.Symbol || m3.Symbol == m2.Symbol {
					continue
				}
				cyc := NewCycle(a, b, NewLeg(m3, b.End))
				if !admissible(cyc, excluded) {
					continue
				}
				if _, dup := seen[cyc.Key()]; dup {
					continue
				}
				seen[cyc.Key()] = struct{}{}
				out = append(out, cyc)
			}
		}
	}
	return out
}

func admissible(c *Cycle, excluded map[string]struct{}) bool {
	for _, leg := range c.Legs {
		if !leg.Market.Active {
			return false
		}
		if _, bad := excluded[leg.Market.Base]; bad {
			return false
		}
		if _, bad := excluded[leg.Market.Quote]; bad {
			return false
		}
	}
	return true
}
