package execution

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/6ixisgood/tbot/internal/book"
	"github.com/6ixisgood/tbot/internal/market"
	"github.com/6ixisgood/tbot/internal/triangle"
	"github.com/6ixisgood/tbot/internal/venue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedVenue fills orders at the book price and can be told to fail
// on the n-th submission.
type scriptedVenue struct {
	table    *book.Table
	requests []venue.OrderRequest
	failOn   int // 1-based; 0 means never
	failWith error
	seq      int
}

func newScriptedVenue() *scriptedVenue {
	t := book.NewTable()
	t.Set(book.Snapshot{Symbol: "BTCUSDT", Ask: 50000, Bid: 49990})
	t.Set(book.Snapshot{Symbol: "ETHBTC", Ask: 0.07, Bid: 0.0699})
	t.Set(book.Snapshot{Symbol: "ETHUSDT", Ask: 3510, Bid: 3500})
	return &scriptedVenue{table: t}
}

func (s *scriptedVenue) Name() string      { return "scripted" }
func (s *scriptedVenue) Book() *book.Table { return s.table }

func (s *scriptedVenue) Markets(context.Context) ([]market.Market, error) { return nil, nil }

func (s *scriptedVenue) FreeBalance(context.Context, string) (float64, error) { return 0, nil }

func (s *scriptedVenue) RunFeed(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *scriptedVenue) CreateOrder(_ context.Context, req venue.OrderRequest) (venue.Order, error) {
	s.requests = append(s.requests, req)
	if s.failOn > 0 && len(s.requests) == s.failOn {
		err := s.failWith
		if err == nil {
			err = errors.New("scripted failure")
		}
		return venue.Order{}, err
	}
	snap, _ := s.table.Get(req.Symbol)
	price := snap.Ask
	if req.Side == "sell" {
		price = snap.Bid
	}
	s.seq++
	return venue.Order{
		ID:     "ord-" + strconv.Itoa(s.seq),
		Symbol: req.Symbol,
		Side:   req.Side,
		Price:  price,
		Amount: req.Amount,
		Filled: req.Amount,
		Cost:   req.Amount * price,
		Status: venue.StatusFilled,
	}, nil
}

func testCycle(t *testing.T) *triangle.Cycle {
	t.Helper()
	btcusdt := market.Market{Symbol: "BTC/USDT", ID: "BTCUSDT", Base: "BTC", Quote: "USDT", Active: true}
	ethbtc := market.Market{Symbol: "ETH/BTC", ID: "ETHBTC", Base: "ETH", Quote: "BTC", Active: true}
	ethusdt := market.Market{Symbol: "ETH/USDT", ID: "ETHUSDT", Base: "ETH", Quote: "USDT", Active: true}
	c := triangle.NewCycle(
		triangle.NewLeg(btcusdt, "USDT"),
		triangle.NewLeg(ethbtc, "BTC"),
		triangle.NewLeg(ethusdt, "ETH"),
	)
	require.Equal(t, "USDT", c.Legs[2].End)
	return c
}

func TestExecute_FullCycle(t *testing.T) {
	v := newScriptedVenue()
	exec := NewExecutor(v, zap.NewNop())
	c := testCycle(t)

	rep := exec.Execute(context.Background(), c, 1000)

	require.False(t, rep.Halted)
	require.Len(t, rep.Legs, 3)
	require.Len(t, v.requests, 3)

	// Buy legs are submitted in base units: 1000/50000 BTC.
	assert.InDelta(t, 0.02, v.requests[0].Amount, 1e-12)
	assert.Equal(t, "buy", v.requests[0].Side)

	// Each leg is funded by the previous leg's actual output.
	assert.InDelta(t, rep.Legs[0].Out/0.07, v.requests[1].Amount, 1e-12)
	assert.InDelta(t, rep.Legs[1].Out, v.requests[2].Amount, 1e-12)

	assert.Equal(t, "USDT", rep.Position)
	assert.InDelta(t, rep.Legs[2].Out, rep.PositionAmount, 1e-12)

	actual, ok := rep.ActualRate()
	require.True(t, ok)
	assert.Greater(t, actual, 0.0)

	assert.False(t, c.Ready(timeNowPlus(0)), "cooldown starts after a full execution")
}

func TestExecute_HaltsOnSecondLeg(t *testing.T) {
	v := newScriptedVenue()
	v.failOn = 2
	exec := NewExecutor(v, zap.NewNop())
	c := testCycle(t)

	rep := exec.Execute(context.Background(), c, 1000)

	require.True(t, rep.Halted)
	assert.Equal(t, 1, rep.FailedLeg)
	assert.Len(t, rep.Legs, 1, "exactly one completed leg")
	assert.Len(t, v.requests, 2, "leg 3 must never be submitted")
	assert.Error(t, rep.Err)

	// Position is left in the currency the failed leg started from.
	assert.Equal(t, "BTC", rep.Position)
	assert.InDelta(t, rep.Legs[0].Out, rep.PositionAmount, 1e-12)

	assert.True(t, c.Ready(timeNowPlus(0)), "halted execution does not start the cooldown")
}

func TestExecute_HaltsOnRejectedStatus(t *testing.T) {
	v := newScriptedVenue()
	exec := NewExecutor(v, zap.NewNop())
	c := testCycle(t)

	// Degenerate first-leg book: no usable ask means the first order is
	// never even submitted.
	v.table.Set(book.Snapshot{Symbol: "BTCUSDT", Ask: 0, Bid: 49990})

	rep := exec.Execute(context.Background(), c, 1000)
	require.True(t, rep.Halted)
	assert.Equal(t, 0, rep.FailedLeg)
	assert.Empty(t, rep.Legs)
	assert.Empty(t, v.requests)
	assert.Equal(t, "USDT", rep.Position)
	assert.InDelta(t, 1000, rep.PositionAmount, 1e-12)
}

func TestExecute_ClassifiedErrorSurfaces(t *testing.T) {
	v := newScriptedVenue()
	v.failOn = 1
	v.failWith = venue.E(venue.KindRateLimited, "createOrder", errors.New("429"))
	exec := NewExecutor(v, zap.NewNop())

	rep := exec.Execute(context.Background(), testCycle(t), 1000)
	require.True(t, rep.Halted)
	assert.Equal(t, venue.KindRateLimited, venue.KindOf(rep.Err))
}

func timeNowPlus(d time.Duration) time.Time { return time.Now().Add(d) }

func TestReport_Dust(t *testing.T) {
	rep := &Report{
		Legs: []LegResult{
			{In: 1000, Out: 0.02},
			{In: 0.0199, Out: 0.28},
			{In: 0.28, Out: 1001},
		},
	}
	dust := rep.Dust()
	require.Len(t, dust, 3)
	assert.Equal(t, 0.0, dust[0])
	assert.InDelta(t, 0.0001, dust[1], 1e-12)
	assert.InDelta(t, 0.0, dust[2], 1e-12)
}
