package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/6ixisgood/tbot/internal/book"
	"github.com/6ixisgood/tbot/internal/config"
	"github.com/6ixisgood/tbot/internal/execution"
	"github.com/6ixisgood/tbot/internal/market"
	"github.com/6ixisgood/tbot/internal/metrics"
	"github.com/6ixisgood/tbot/internal/triangle"
	"github.com/6ixisgood/tbot/internal/venue"
	"go.uber.org/zap"
)

// Arbitrage scans three-leg currency cycles on one venue and executes
// any cycle whose net rate clears the configured threshold.
type Arbitrage struct {
	name   string
	venue  venue.Venue
	opt    config.StrategyOptions
	log    *zap.Logger
	exec   *execution.Executor
	cycles []*triangle.Cycle
}

func NewArbitrage(name string, v venue.Venue, opt config.StrategyOptions, log *zap.Logger) (*Arbitrage, error) {
	if opt.TradeUnit <= 0 {
		return nil, fmt.Errorf("strategy %s: trade_unit must be positive", name)
	}
	if opt.InitCurrency == "" {
		return nil, fmt.Errorf("strategy %s: init_currency is required", name)
	}
	return &Arbitrage{
		name:  name,
		venue: v,
		opt:   opt,
		log:   log.With(zap.String("strategy", name), zap.String("venue", v.Name())),
		exec:  execution.NewExecutor(v, log.With(zap.String("strategy", name))),
	}, nil
}

func (a *Arbitrage) Name() string { return a.name }

func (a *Arbitrage) Venue() venue.Venue { return a.venue }

func (a *Arbitrage) RequiredFunds() map[string]float64 {
	return map[string]float64{a.opt.InitCurrency: a.opt.TradeUnit}
}

// Run builds the session's cycle set, starts the venue's feed loop, and
// scans every cycle once per tick until ctx is canceled.
func (a *Arbitrage) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return err
	}
	if len(a.cycles) == 0 {
		a.log.Warn("no cycles for starting currency; nothing to do",
			zap.String("currency", a.opt.InitCurrency))
		return nil
	}

	feedErr := make(chan error, 1)
	go func() { feedErr <- a.venue.RunFeed(ctx) }()

	if missing := book.WaitReady(ctx, a.venue.Book(), a.watchedSymbols(), a.opt.Bootstrap(), a.log); len(missing) > 0 {
		a.log.Warn("book warm-up timed out; scanning with partial data",
			zap.Int("missing", len(missing)))
	}

	tick := time.NewTicker(a.opt.ScanInterval())
	defer tick.Stop()

	a.log.Info("scan loop started",
		zap.Int("cycles", len(a.cycles)),
		zap.Float64("trade_unit", a.opt.TradeUnit),
		zap.Float64("min_rate", a.opt.MinRate),
		zap.Bool("dry_run", a.opt.DryRun),
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-feedErr:
			if ctx.Err() != nil {
				return nil
			}
			if err == nil {
				// A finite source (replay hitting EOF) is a normal end
				// of session, not a failure.
				a.log.Info("feed finished; stopping scan loop")
				return nil
			}
			return fmt.Errorf("strategy %s: feed loop failed: %w", a.name, err)
		case <-tick.C:
			a.scan(ctx)
		}
	}
}

func (a *Arbitrage) startup(ctx context.Context) error {
	mkts, err := a.venue.Markets(ctx)
	if err != nil {
		return fmt.Errorf("strategy %s: load markets: %w", a.name, err)
	}
	cat := market.NewCatalog(mkts)
	a.cycles = triangle.Build(cat, a.opt.InitCurrency, a.opt.ExcludeCurrencies)
	for _, c := range a.cycles {
		c.Cooldown = a.opt.Cooldown()
	}
	metrics.CyclesBuilt.WithLabelValues(a.name).Set(float64(len(a.cycles)))
	a.log.Info("cycles built",
		zap.Int("markets", cat.Len()),
		zap.Int("cycles", len(a.cycles)),
	)
	return nil
}

// scan evaluates every cycle against the current book. Failures local to
// one cycle (no data, invalid size) are absorbed at debug level.
func (a *Arbitrage) scan(ctx context.Context) {
	started := time.Now()
	now := started
	best := 0.0
	haveBest := false

	for _, c := range a.cycles {
		if ctx.Err() != nil {
			return
		}
		rate, ok := triangle.NetRate(c, a.venue.Book(), a.opt.FeeRate, a.opt.MaxTickAge())
		if !ok {
			continue
		}
		if !haveBest || rate > best {
			best, haveBest = rate, true
		}
		if rate <= a.opt.MinRate {
			continue
		}
		a.log.Debug("candidate cycle", zap.String("cycle", c.String()), zap.Float64("rate", rate))
		if !c.Ready(now) {
			a.log.Debug("cycle cooling down", zap.String("cycle", c.String()))
			continue
		}
		if err := triangle.Validate(c, a.venue.Book(), a.opt.TradeUnit); err != nil {
			a.log.Debug("trade size not executable", zap.String("cycle", c.String()), zap.Error(err))
			continue
		}
		if a.opt.DryRun {
			a.log.Info("dry-run: would execute cycle",
				zap.String("cycle", c.String()),
				zap.Float64("rate", rate),
				zap.Float64("trade_unit", a.opt.TradeUnit),
			)
			c.MarkTraded(now)
			continue
		}
		rep := a.exec.Execute(ctx, c, a.opt.TradeUnit)
		if rep.Halted {
			metrics.Executions.WithLabelValues(a.name, "halted").Inc()
		} else {
			metrics.Executions.WithLabelValues(a.name, "ok").Inc()
		}
	}

	if haveBest {
		metrics.BestRate.WithLabelValues(a.name).Set(best)
	}
	metrics.ScanTicks.WithLabelValues(a.name).Inc()
	metrics.ScanDuration.WithLabelValues(a.name).Observe(time.Since(started).Seconds())
}

func (a *Arbitrage) watchedSymbols() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range a.cycles {
		for _, sym := range c.Symbols() {
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			out = append(out, sym)
		}
	}
	return out
}
