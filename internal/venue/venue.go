package venue

import (
	"context"

	"github.com/6ixisgood/tbot/internal/book"
	"github.com/6ixisgood/tbot/internal/market"
)

// Order is the venue's account of one executed (or rejected) order.
type Order struct {
	ID     string
	Symbol string // venue symbol, e.g. "ETHBTC"
	Side   string // "buy" | "sell"
	Price  float64
	Amount float64 // requested, base units
	Filled float64 // actually filled, base units
	Cost   float64 // quote spent/received
	Fee    float64 // in quote units
	Status string  // "filled" | "rejected" | ...
}

const (
	StatusFilled   = "filled"
	StatusRejected = "rejected"
)

// OrderRequest is what a strategy asks the venue to do. Amount is always
// in base units; Price is only meaningful for limit orders.
type OrderRequest struct {
	Symbol string
	Kind   string // "market" | "limit"
	Side   string // "buy" | "sell"
	Amount float64
	Price  float64
}

// Venue is the single capability surface the core needs from a trading
// platform: catalog, balances, order entry and a live price table.
type Venue interface {
	Name() string
	Markets(ctx context.Context) ([]market.Market, error)
	FreeBalance(ctx context.Context, currency string) (float64, error)
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)

	// Book is the continuously refreshed bid/ask table populated by
	// RunFeed. RunFeed blocks until ctx is canceled or the transport
	// fails permanently.
	Book() *book.Table
	RunFeed(ctx context.Context) error
}
