package market

import "strings"

// Market describes one tradable pair and its exchange-imposed minimums.
// Immutable after the catalog is loaded.
type Market struct {
	Symbol    string // unified form, e.g. "ETH/BTC"
	ID        string // venue form, e.g. "ETHBTC"; order and stream key
	Base      string
	Quote     string
	MinAmount float64 // minimum order size in base units
	MinCost   float64 // minimum order cost in quote units
	Active    bool
}

// id derives the venue symbol from the unified one when the adapter did
// not supply it.
func (m Market) id() string {
	if m.ID != "" {
		return m.ID
	}
	return strings.ReplaceAll(m.Symbol, "/", "")
}

// Catalog is the static snapshot of tradable pairs for one session.
// Read-only after New; no synchronization needed.
type Catalog struct {
	markets map[string]Market
	order   []string
}

func NewCatalog(list []Market) *Catalog {
	c := &Catalog{
		markets: make(map[string]Market, len(list)),
		order:   make([]string, 0, len(list)),
	}
	for _, m := range list {
		m.ID = m.id()
		if _, dup := c.markets[m.Symbol]; dup {
			continue
		}
		c.markets[m.Symbol] = m
		c.order = append(c.order, m.Symbol)
	}
	return c
}

func (c *Catalog) Get(symbol string) (Market, bool) {
	m, ok := c.markets[symbol]
	return m, ok
}

func (c *Catalog) Len() int { return len(c.order) }

// All returns markets in load order.
func (c *Catalog) All() []Market {
	out := make([]Market, 0, len(c.order))
	for _, sym := range c.order {
		out = append(out, c.markets[sym])
	}
	return out
}

// MatchPairs returns every market where cur is base or quote. With a
// second currency it returns only markets connecting the two, in either
// orientation.
func (c *Catalog) MatchPairs(cur string, counter ...string) []Market {
	var out []Market
	for _, sym := range c.order {
		m := c.markets[sym]
		if len(counter) > 0 {
			other := counter[0]
			if (m.Base == cur && m.Quote == other) || (m.Base == other && m.Quote == cur) {
				out = append(out, m)
			}
			continue
		}
		if m.Base == cur || m.Quote == cur {
			out = append(out, m)
		}
	}
	return out
}
