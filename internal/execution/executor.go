package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/6ixisgood/tbot/internal/triangle"
	"github.com/6ixisgood/tbot/internal/venue"
	"go.uber.org/zap"
)

// LegResult records one executed leg: the order the venue returned plus
// the amounts actually moved, expressed in the leg's start (In) and end
// (Out) currencies.
type LegResult struct {
	Leg   triangle.Leg
	Order venue.Order
	In    float64
	Out   float64
}

// Report is the outcome of one cycle execution attempt. When Halted is
// set the sequence stopped at FailedLeg and the position was left as
// Position/PositionAmount. That position is real capital exposure and
// is always surfaced to the operator.
type Report struct {
	Cycle          *triangle.Cycle
	Legs           []LegResult
	Halted         bool
	FailedLeg      int
	Position       string
	PositionAmount float64
	Err            error
}

// ActualRate is realized end amount over start amount, defined only for
// a fully executed cycle.
func (r *Report) ActualRate() (float64, bool) {
	if r.Halted || len(r.Legs) != 3 || r.Legs[0].In == 0 {
		return 0, false
	}
	return r.Legs[2].Out / r.Legs[0].In, true
}

// Dust is the slippage between what leg i-1 delivered and what leg i
// actually consumed, per handoff.
func (r *Report) Dust() []float64 {
	out := make([]float64, 0, len(r.Legs))
	for i, lr := range r.Legs {
		if i == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, r.Legs[i-1].Out-lr.In)
	}
	return out
}

// Executor submits a validated cycle's three legs to the venue in order.
type Executor struct {
	venue venue.Venue
	log   *zap.Logger
}

func NewExecutor(v venue.Venue, log *zap.Logger) *Executor {
	return &Executor{venue: v, log: log}
}

// Execute runs the cycle's legs sequentially, funding each leg with the
// actual filled/cost amount of the previous one. Any failed submission
// halts the sequence immediately; completed legs are not unwound, the
// report carries the off-target position instead.
func (e *Executor) Execute(ctx context.Context, c *triangle.Cycle, startAmount float64) *Report {
	rep := &Report{Cycle: c, Legs: make([]LegResult, 0, 3)}
	amount := startAmount

	for i, leg := range c.Legs {
		req, err := e.legRequest(leg, amount)
		if err != nil {
			return e.halt(rep, i, leg, amount, err)
		}
		ord, err := e.venue.CreateOrder(ctx, req)
		if err != nil {
			return e.halt(rep, i, leg, amount, err)
		}
		if ord.Status != venue.StatusFilled || ord.Filled == 0 {
			return e.halt(rep, i, leg, amount, fmt.Errorf("order %s status %q", ord.ID, ord.Status))
		}

		in, out := legAmounts(leg, ord)
		rep.Legs = append(rep.Legs, LegResult{Leg: leg, Order: ord, In: in, Out: out})
		e.log.Debug("leg filled",
			zap.Int("leg", i),
			zap.String("symbol", leg.Market.Symbol),
			zap.String("side", string(leg.Side)),
			zap.Float64("in", in),
			zap.Float64("out", out),
			zap.String("order_id", ord.ID),
		)
		amount = out
	}

	c.MarkTraded(time.Now())
	rep.Position = c.Legs[2].End
	rep.PositionAmount = amount
	e.logEvaluation(rep)
	return rep
}

// legRequest expresses the held amount as a venue-facing order: buy legs
// divide by the current ask so the order is in base-currency units.
func (e *Executor) legRequest(leg triangle.Leg, amount float64) (venue.OrderRequest, error) {
	req := venue.OrderRequest{
		Symbol: leg.Market.ID,
		Kind:   "market",
		Side:   string(leg.Side),
		Amount: amount,
	}
	if leg.Side == triangle.Buy {
		snap, ok := e.venue.Book().Get(leg.Market.ID)
		if !ok || snap.Ask == 0 {
			return venue.OrderRequest{}, fmt.Errorf("no usable ask for %s", leg.Market.Symbol)
		}
		req.Amount = amount / snap.Ask
	}
	return req, nil
}

// legAmounts maps an order's fill figures onto the leg's start and end
// currencies: a buy spends quote (cost) and receives base (filled), a
// sell the reverse.
func legAmounts(leg triangle.Leg, ord venue.Order) (in, out float64) {
	if leg.Side == triangle.Buy {
		return ord.Cost, ord.Filled
	}
	return ord.Filled, ord.Cost
}

func (e *Executor) halt(rep *Report, failed int, leg triangle.Leg, amount float64, err error) *Report {
	rep.Halted = true
	rep.FailedLeg = failed
	rep.Position = leg.Start
	rep.PositionAmount = amount
	rep.Err = err
	e.log.Error("execution halted mid-cycle; position left as-is",
		zap.String("cycle", rep.Cycle.String()),
		zap.Int("failed_leg", failed),
		zap.Int("legs_completed", len(rep.Legs)),
		zap.String("position", rep.Position),
		zap.Float64("position_amount", rep.PositionAmount),
		zap.String("error_kind", venue.KindOf(err).String()),
		zap.Error(err),
	)
	return rep
}

// logEvaluation compares the realized outcome against the per-leg fills,
// including handoff dust, for post-trade review.
func (e *Executor) logEvaluation(rep *Report) {
	actual, _ := rep.ActualRate()
	e.log.Info("cycle executed",
		zap.String("cycle", rep.Cycle.String()),
		zap.Float64("start_amount", rep.Legs[0].In),
		zap.Float64("end_amount", rep.PositionAmount),
		zap.Float64("actual_rate", actual),
		zap.Float64s("dust", rep.Dust()),
	)
}
