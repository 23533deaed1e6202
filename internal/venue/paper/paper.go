package paper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/6ixisgood/tbot/internal/book"
	"github.com/6ixisgood/tbot/internal/config"
	"github.com/6ixisgood/tbot/internal/market"
	"github.com/6ixisgood/tbot/internal/venue"
	"go.uber.org/zap"
)

// Source is whatever feeds the paper book: a file replayer or a tick
// stream consumer.
type Source interface {
	Run(ctx context.Context) error
}

// Venue simulates an exchange against the live (or replayed) book:
// orders fill instantly at the current best price and move virtual
// balances. Used by backtests and tests.
type Venue struct {
	name    string
	log     *zap.Logger
	table   *book.Table
	source  Source
	feeRate float64

	mu       sync.Mutex
	markets  []market.Market
	balances map[string]float64
	seq      int
}

func New(name string, opt config.VenueOptions, log *zap.Logger) (*Venue, error) {
	v := &Venue{
		name:     name,
		log:      log,
		table:    book.NewTable(),
		feeRate:  opt.FeeRate,
		balances: make(map[string]float64, len(opt.InitialFunds)),
	}
	for cur, amt := range opt.InitialFunds {
		v.balances[cur] = amt
	}
	if opt.MarketsFile != "" {
		mkts, err := loadMarkets(opt.MarketsFile)
		if err != nil {
			return nil, fmt.Errorf("paper venue %s: %w", name, err)
		}
		v.markets = mkts
	}
	return v, nil
}

// SetMarkets replaces the static catalog; handy for tests and for
// venues constructed without a markets file.
func (v *Venue) SetMarkets(mkts []market.Market) {
	v.mu.Lock()
	v.markets = mkts
	v.mu.Unlock()
}

// SetSource installs the feed that populates the book during RunFeed.
func (v *Venue) SetSource(s Source) { v.source = s }

func (v *Venue) Name() string      { return v.name }
func (v *Venue) Book() *book.Table { return v.table }

func (v *Venue) Markets(_ context.Context) ([]market.Market, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]market.Market, len(v.markets))
	copy(out, v.markets)
	return out, nil
}

func (v *Venue) FreeBalance(_ context.Context, currency string) (float64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances[currency], nil
}

// Deposit credits the virtual account.
func (v *Venue) Deposit(currency string, amount float64) {
	v.mu.Lock()
	v.balances[currency] += amount
	v.mu.Unlock()
}

// CreateOrder fills a market order at the current book price, debiting
// the spend currency and crediting the receive currency.
func (v *Venue) CreateOrder(_ context.Context, req venue.OrderRequest) (venue.Order, error) {
	snap, ok := v.table.Get(req.Symbol)
	if !ok {
		return venue.Order{}, venue.E(venue.KindExchange, "createOrder",
			fmt.Errorf("no book for %s", req.Symbol))
	}

	m, ok := v.findMarket(req.Symbol)
	if !ok {
		return venue.Order{}, venue.E(venue.KindExchange, "createOrder",
			fmt.Errorf("unknown market %s", req.Symbol))
	}

	price := snap.Ask
	if req.Side == "sell" {
		price = snap.Bid
	}
	if price == 0 {
		return venue.Order{}, venue.E(venue.KindExchange, "createOrder",
			fmt.Errorf("degenerate book for %s", req.Symbol))
	}

	filled := req.Amount
	cost := filled * price

	spendCur, spend := m.Quote, cost
	recvCur, recv := m.Base, filled
	if req.Side == "sell" {
		spendCur, spend = m.Base, filled
		recvCur, recv = m.Quote, cost
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.balances[spendCur] < spend {
		return venue.Order{}, venue.E(venue.KindInsufficientFunds, "createOrder",
			fmt.Errorf("balance %s %.8f < %.8f", spendCur, v.balances[spendCur], spend))
	}
	v.balances[spendCur] -= spend
	v.balances[recvCur] += recv
	v.seq++

	return venue.Order{
		ID:     "paper-" + strconv.Itoa(v.seq),
		Symbol: req.Symbol,
		Side:   req.Side,
		Price:  price,
		Amount: req.Amount,
		Filled: filled,
		Cost:   cost,
		Fee:    cost * v.feeRate,
		Status: venue.StatusFilled,
	}, nil
}

// RunFeed runs the installed source; without one it just waits for
// cancellation, leaving the table to be filled by tests directly.
func (v *Venue) RunFeed(ctx context.Context) error {
	if v.source == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return v.source.Run(ctx)
}

func (v *Venue) findMarket(id string) (market.Market, bool) {
	for _, m := range v.markets {
		if m.ID == id || m.Symbol == id {
			return m, true
		}
	}
	return market.Market{}, false
}

type marketFileEntry struct {
	Symbol    string  `json:"symbol"`
	Base      string  `json:"base"`
	Quote     string  `json:"quote"`
	MinAmount float64 `json:"min_amount"`
	MinCost   float64 `json:"min_cost"`
	Active    bool    `json:"active"`
}

func loadMarkets(path string) ([]market.Market, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []marketFileEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, err
	}
	out := make([]market.Market, 0, len(entries))
	for _, e := range entries {
		out = append(out, market.Market{
			Symbol:    e.Symbol,
			Base:      e.Base,
			Quote:     e.Quote,
			MinAmount: e.MinAmount,
			MinCost:   e.MinCost,
			Active:    e.Active,
		})
	}
	return out, nil
}
